package agent

import (
	"context"
	"strings"

	"shelf-scanner/backend/internal/agent/deps"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// AppName identifies the scanner in ADK sessions
const AppName = "shelf_scanner"

// ErrInstructionMismatch is returned when a call asks an AgentLLMClient for
// an instruction other than the one its agent was built with
var ErrInstructionMismatch = eris.New("instruction differs from the agent's instruction")

// AgentLLMClient implements deps.LLMClient by running a single-turn ADK agent.
// Each scan gets its own session, which is deleted afterwards.
type AgentLLMClient struct {
	instruction    string
	runner         *runner.Runner
	sessionService session.Service
	logger         *zap.Logger
}

// NewAgentLLMClient creates the ADK agent around the given model. The
// instruction is fixed at construction.
func NewAgentLLMClient(llm model.LLM, instruction string, logger *zap.Logger) (*AgentLLMClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        AppName,
		Model:       llm,
		Description: "Identifies books on a shelf photo and writes a one-line synopsis for each.",
		Instruction: instruction,
		GenerateContentConfig: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.2),
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "create LLM agent")
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        AppName,
		Agent:          llmAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, eris.Wrap(err, "create runner")
	}

	return &AgentLLMClient{
		instruction:    instruction,
		runner:         r,
		sessionService: sessionService,
		logger:         logger,
	}, nil
}

// GenerateFromImage runs the agent on the image and returns the concatenated reply text.
// instruction must be empty or equal to the agent's own.
func (c *AgentLLMClient) GenerateFromImage(ctx context.Context, instruction string, image deps.Image) (string, error) {
	if instruction != "" && instruction != c.instruction {
		return "", ErrInstructionMismatch
	}

	userID := "scan_" + uuid.NewString()

	created, err := c.sessionService.Create(ctx, &session.CreateRequest{
		AppName: AppName,
		UserID:  userID,
	})
	if err != nil {
		return "", eris.Wrap(err, "create session")
	}
	sessionID := created.Session.ID()
	defer c.deleteSession(userID, sessionID)

	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	var sb strings.Builder
	for event, err := range c.runner.Run(ctx, userID, sessionID, userContent(image), runConfig) {
		if err != nil {
			return "", eris.Wrap(err, "agent run")
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				sb.WriteString(part.Text)
			}
		}
	}

	c.logger.Debug("agent run finished",
		zap.String("session_id", sessionID),
		zap.Int("reply_len", sb.Len()),
	)
	return sb.String(), nil
}

// deleteSession drops the per-scan session; nothing about a scan is kept
func (c *AgentLLMClient) deleteSession(userID, sessionID string) {
	err := c.sessionService.Delete(context.Background(), &session.DeleteRequest{
		AppName:   AppName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		c.logger.Warn("failed to delete scan session", zap.String("session_id", sessionID), zap.Error(err))
	}
}
