package validation

import (
	"go.uber.org/zap"
)

// Pipeline runs multiple validators in sequence and stops at the first failure
type Pipeline struct {
	validators []Validator
	logger     *zap.Logger
}

// NewPipeline creates a new validation pipeline
func NewPipeline(logger *zap.Logger, validators ...Validator) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		validators: validators,
		logger:     logger,
	}
}

// DefaultPipeline returns the gist schema rules: string values first, then non-empty text
func DefaultPipeline(logger *zap.Logger) *Pipeline {
	return NewPipeline(logger, NewStringValueValidator(), NewNonEmptyValidator())
}

// Validate runs all validators. The payload is accepted only if every validator passes.
func (p *Pipeline) Validate(input ValidationInput) ValidationResult {
	for _, v := range p.validators {
		result := v.Validate(input)
		if result.IsValid {
			p.logger.Debug("validator passed", zap.String("validator", v.Name()))
			continue
		}
		p.logger.Debug("validator failed",
			zap.String("validator", v.Name()),
			zap.String("reason", result.Reason),
		)
		return result
	}
	return OK()
}
