package agent

import (
	"context"
	"errors"
	"time"

	"shelf-scanner/backend/internal/agent/deps"
	"shelf-scanner/backend/internal/agent/prompt"
	"shelf-scanner/backend/internal/agent/response"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the Gemini model used for shelf scans
	DefaultModel = "gemini-2.5-flash"
	// DefaultScanTimeout bounds one model call
	DefaultScanTimeout = 30 * time.Second
	// DefaultMaxRetries is the number of extra model calls after a failed one
	DefaultMaxRetries = 2
	// DefaultRetryBackoff is multiplied by the attempt number between retries
	DefaultRetryBackoff = 500 * time.Millisecond
)

// ErrEmptyReply is returned when the model call succeeds but yields no text
var ErrEmptyReply = errors.New("model returned no text")

// ScannerOptions tunes the model call around a scan
type ScannerOptions struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

func (o ScannerOptions) withDefaults() ScannerOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultScanTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff < 0 {
		o.RetryBackoff = 0
	}
	return o
}

// Scanner sends a shelf photo to the model and normalizes the reply
type Scanner struct {
	llm         deps.LLMClient
	normalizer  *response.Normalizer
	instruction string
	opts        ScannerOptions
	logger      *zap.Logger
}

// NewScanner creates a Scanner. A nil normalizer uses the default one.
func NewScanner(llm deps.LLMClient, normalizer *response.Normalizer, opts ScannerOptions, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = response.NewNormalizer(response.WithLogger(logger.Named("normalizer")))
	}
	return &Scanner{
		llm:         llm,
		normalizer:  normalizer,
		instruction: prompt.NewBuilder().BuildScanInstruction(),
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

// Scan returns the normalized model reply for the image. The error is
// non-nil only when the model call itself failed; a malformed reply is a
// failure Result, never an error, and is not retried.
func (s *Scanner) Scan(ctx context.Context, image deps.Image) (response.Result, error) {
	start := time.Now()

	raw, err := s.generateWithRetry(ctx, image)
	if err != nil {
		s.logger.Error("model call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return response.Result{}, err
	}
	s.logger.Debug("raw model reply", zap.String("raw", raw))

	result := s.normalizer.Normalize(raw)
	if !result.OK() {
		s.logger.Warn("model reply rejected",
			zap.String("kind", string(result.Kind)),
			zap.String("reason", result.Failure.Message),
		)
	} else {
		s.logger.Info("scan completed",
			zap.Int("books", result.Gists.Len()),
			zap.String("strategy", string(result.Strategy)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return result, nil
}

// generateWithRetry calls the model with a per-attempt timeout and retries failed calls
func (s *Scanner) generateWithRetry(ctx context.Context, image deps.Image) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("retrying model call", zap.Int("attempt", attempt+1), zap.Int("max_attempts", s.opts.MaxRetries+1))
			if err := sleepCtx(ctx, time.Duration(attempt)*s.opts.RetryBackoff); err != nil {
				return "", err
			}
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		raw, err := s.llm.GenerateFromImage(timeoutCtx, s.instruction, image)
		cancel()

		if err == nil && raw == "" {
			err = ErrEmptyReply
		}
		if err == nil {
			return raw, nil
		}

		lastErr = err
		s.logger.Warn("model call attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))

		// Don't retry when the caller went away
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return "", err
		}
	}

	return "", eris.Wrapf(lastErr, "model call failed after %d attempts", s.opts.MaxRetries+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
