package agent

import (
	"context"

	"shelf-scanner/backend/internal/agent/deps"
	"shelf-scanner/backend/internal/agent/prompt"
	"shelf-scanner/backend/internal/agent/response"
	"shelf-scanner/backend/internal/config"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// ErrMissingAPIKey is returned when GEMINI_API_KEY is not configured
var ErrMissingAPIKey = eris.New("GEMINI_API_KEY is not set")

// NewLLMClient builds the model client selected by MODEL_RUNTIME
func NewLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (deps.LLMClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	switch cfg.ModelRuntime {
	case config.RuntimeDirect:
		client, err := genai.NewClient(ctx, clientConfig)
		if err != nil {
			return nil, eris.Wrap(err, "create genai client")
		}
		return NewGeminiLLMClient(client, cfg.Model), nil

	case config.RuntimeAgent:
		geminiModel, err := gemini.NewModel(ctx, cfg.Model, clientConfig)
		if err != nil {
			return nil, eris.Wrap(err, "create Gemini model")
		}
		return NewAgentLLMClient(geminiModel, prompt.NewBuilder().BuildScanInstruction(), logger.Named("adk"))

	default:
		return nil, eris.Errorf("unknown model runtime %q", cfg.ModelRuntime)
	}
}

// NewScannerFromConfig wires the model client, normalizer and retry policy
func NewScannerFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Scanner, error) {
	llm, err := NewLLMClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	normalizer := response.NewNormalizer(
		response.WithLogger(logger.Named("normalizer")),
		response.WithRepair(cfg.JSONRepair),
	)

	return NewScanner(llm, normalizer, ScannerOptions{
		Timeout:      cfg.ScanTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}, logger.Named("scanner")), nil
}
