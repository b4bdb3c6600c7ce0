package validation

import (
	"encoding/json"
	"fmt"
)

// Field is one decoded member of the model's JSON object. Value holds the
// decoded JSON value (string, json.Number, bool, nil, []any or map[string]any).
type Field struct {
	Title string
	Value any
}

// ValidationInput contains all data needed for validation
type ValidationInput struct {
	Fields []Field
}

// ValidationResult is the outcome of a validation
type ValidationResult struct {
	IsValid bool
	Reason  string
	Title   string // Offending title, empty when the failure is not tied to one entry
}

// OK returns a successful validation result
func OK() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Fail returns a failed validation result for the given entry
func Fail(title, reason string) ValidationResult {
	return ValidationResult{IsValid: false, Title: title, Reason: reason}
}

// Validator is the interface for validation rules
type Validator interface {
	// Name returns the validator's name for logging
	Name() string
	// Validate checks the decoded fields and returns a validation result
	Validate(input ValidationInput) ValidationResult
}

// StringValueValidator requires every value to be a JSON string.
type StringValueValidator struct{}

// NewStringValueValidator creates a new StringValueValidator
func NewStringValueValidator() *StringValueValidator {
	return &StringValueValidator{}
}

// Name returns the validator name
func (v *StringValueValidator) Name() string {
	return "StringValueValidator"
}

// Validate rejects the first field whose value is not a string
func (v *StringValueValidator) Validate(input ValidationInput) ValidationResult {
	for _, f := range input.Fields {
		if _, ok := f.Value.(string); !ok {
			return Fail(f.Title, fmt.Sprintf("value for %q must be a string, got %s", truncateForLog(f.Title, 80), TypeName(f.Value)))
		}
	}
	return OK()
}

// NonEmptyValidator requires titles and gists to be non-empty strings.
// Whitespace-only text is kept as is.
type NonEmptyValidator struct{}

// NewNonEmptyValidator creates a new NonEmptyValidator
func NewNonEmptyValidator() *NonEmptyValidator {
	return &NonEmptyValidator{}
}

// Name returns the validator name
func (v *NonEmptyValidator) Name() string {
	return "NonEmptyValidator"
}

// Validate rejects empty titles and empty string values
func (v *NonEmptyValidator) Validate(input ValidationInput) ValidationResult {
	for i, f := range input.Fields {
		if f.Title == "" {
			return Fail(f.Title, fmt.Sprintf("entry %d has an empty title", i+1))
		}
		if s, ok := f.Value.(string); ok && s == "" {
			return Fail(f.Title, fmt.Sprintf("gist for %q is empty", truncateForLog(f.Title, 80)))
		}
	}
	return OK()
}

// TypeName returns the JSON type name of a decoded value
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// truncateForLog truncates a string for logging purposes
func truncateForLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
