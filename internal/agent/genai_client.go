package agent

import (
	"context"
	"strings"

	"shelf-scanner/backend/internal/agent/deps"
	"shelf-scanner/backend/internal/agent/prompt"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// GeminiLLMClient implements deps.LLMClient with a direct Gemini API call
type GeminiLLMClient struct {
	client *genai.Client
	model  string
}

// NewGeminiLLMClient creates a new GeminiLLMClient
func NewGeminiLLMClient(client *genai.Client, model string) *GeminiLLMClient {
	return &GeminiLLMClient{
		client: client,
		model:  model,
	}
}

// GenerateFromImage sends the image with the instruction and returns the reply text
func (c *GeminiLLMClient) GenerateFromImage(ctx context.Context, instruction string, image deps.Image) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		MaxOutputTokens: 2048,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		userContent(image),
	}, config)
	if err != nil {
		return "", eris.Wrap(err, "gemini generate content")
	}

	return responseText(resp), nil
}

// userContent builds the user turn carrying the shelf photo
func userContent(image deps.Image) *genai.Content {
	return &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: image.MIMEType, Data: image.Data}},
			{Text: prompt.ScanUserMessage},
		},
	}
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
