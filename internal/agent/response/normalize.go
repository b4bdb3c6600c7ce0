// Package response turns raw model output into a validated title -> gist map.
//
// Normalize never panics on untrusted input; every failure is reported as a
// Result whose Failure carries the verbatim model output.
package response

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"shelf-scanner/backend/internal/agent/validation"

	"go.uber.org/zap"
)

// Normalizer converts model output into a Result. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	logger   *zap.Logger
	pipeline *validation.Pipeline
	repair   bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the diagnostic sink. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithRepair enables a third extraction strategy that runs the whole text
// through a JSON repairer when neither the fenced block nor the text parses.
func WithRepair(enabled bool) Option {
	return func(n *Normalizer) {
		n.repair = enabled
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	n.pipeline = validation.DefaultPipeline(n.logger)
	return n
}

var defaultNormalizer = NewNormalizer()

// Normalize runs the default Normalizer.
func Normalize(raw string) Result {
	return defaultNormalizer.Normalize(raw)
}

// Normalize extracts, parses and validates raw model output.
func (n *Normalizer) Normalize(raw string) Result {
	ex := extract(raw, n.repair)
	if !ex.Found() {
		n.logger.Warn("model output is not parsable JSON",
			zap.Int("raw_len", len(raw)),
			zap.String("raw_head", truncate(raw, 100)),
		)
		return failure(KindUnparsableContent, StrategyNone, "",
			"no fenced ```json block or whole-text JSON could be parsed", raw)
	}
	n.logger.Debug("extracted JSON candidate",
		zap.String("strategy", string(ex.Strategy)),
		zap.Int("candidate_len", len(ex.Candidate)),
	)

	fields, err := decodeObject(ex.Candidate)
	if err != nil {
		n.logger.Warn("model output violates gist schema",
			zap.String("strategy", string(ex.Strategy)),
			zap.Error(err),
		)
		return failure(KindSchemaViolation, ex.Strategy, "", err.Error(), raw)
	}

	if result := n.pipeline.Validate(validation.ValidationInput{Fields: fields}); !result.IsValid {
		n.logger.Warn("model output violates gist schema",
			zap.String("strategy", string(ex.Strategy)),
			zap.String("reason", result.Reason),
		)
		return failure(KindSchemaViolation, ex.Strategy, result.Title, result.Reason, raw)
	}

	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, Entry{Title: f.Title, Gist: f.Value.(string)})
	}
	gists := NewGistMap(entries...)

	n.logger.Debug("normalized model output",
		zap.String("strategy", string(ex.Strategy)),
		zap.Int("books", gists.Len()),
	)
	return success(gists, ex.Strategy)
}

// decodeObject decodes a JSON object into fields, keeping source order and
// resolving repeated keys last-write-wins at the first key's position.
// The input must already be valid JSON.
func decodeObject(candidate string) ([]validation.Field, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read top-level value: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value must be an object, got %s", topLevelType(tok))
	}

	index := make(map[string]int)
	var fields []validation.Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("read value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, validation.Field{Title: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read end of object: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after top-level object")
	}

	if fields == nil {
		fields = []validation.Field{}
	}
	return fields, nil
}

func topLevelType(tok json.Token) string {
	if delim, ok := tok.(json.Delim); ok && delim == '[' {
		return "array"
	}
	return validation.TypeName(tok)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
