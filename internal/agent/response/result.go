package response

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Kind classifies the outcome of a normalization.
type Kind string

const (
	KindSuccess           Kind = "success"
	KindUnparsableContent Kind = "unparsable_content"
	KindSchemaViolation   Kind = "schema_violation"
)

// Strategy names the extraction strategy whose candidate was parsed.
type Strategy string

const (
	StrategyNone        Strategy = "none"
	StrategyFencedBlock Strategy = "fenced_block"
	StrategyWholeText   Strategy = "whole_text"
	StrategyRepaired    Strategy = "repaired"
)

var (
	// ErrUnparsableContent matches failures where no candidate parsed as JSON.
	ErrUnparsableContent = errors.New("model output is not parsable JSON")
	// ErrSchemaViolation matches failures where the JSON is not a flat string->string object.
	ErrSchemaViolation = errors.New("model output violates the gist schema")
)

// Entry is one title/synopsis pair.
type Entry struct {
	Title string `json:"title"`
	Gist  string `json:"gist"`
}

// GistMap is an ordered, immutable title -> gist mapping.
// Titles are unique; order is the order in which each title first appeared.
type GistMap struct {
	entries []Entry
}

// NewGistMap builds a GistMap with mapping semantics: a repeated title keeps
// its first position and takes the last value.
func NewGistMap(entries ...Entry) GistMap {
	index := make(map[string]int, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Title]; ok {
			out[i].Gist = e.Gist
			continue
		}
		index[e.Title] = len(out)
		out = append(out, e)
	}
	return GistMap{entries: out}
}

// Len returns the number of entries.
func (m GistMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries in order.
func (m GistMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get returns the gist for a title.
func (m GistMap) Get(title string) (string, bool) {
	for _, e := range m.entries {
		if e.Title == title {
			return e.Gist, true
		}
	}
	return "", false
}

// MarshalJSON encodes the map as a JSON object, keeping entry order.
func (m GistMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Title)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Gist)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Failure describes why a model response could not be normalized.
// Raw always carries the verbatim model output.
type Failure struct {
	Kind    Kind
	Message string
	// Title is the offending entry for schema violations, when there is one.
	Title string
	Raw   string
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Is lets errors.Is match a Failure against ErrUnparsableContent or ErrSchemaViolation.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrUnparsableContent:
		return f.Kind == KindUnparsableContent
	case ErrSchemaViolation:
		return f.Kind == KindSchemaViolation
	}
	return false
}

// Result is the outcome of Normalize. Exactly one of Gists (Kind == KindSuccess)
// or Failure (any other Kind) is meaningful.
type Result struct {
	Kind     Kind
	Gists    GistMap
	Failure  *Failure
	Strategy Strategy
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

func success(m GistMap, s Strategy) Result {
	return Result{Kind: KindSuccess, Gists: m, Strategy: s}
}

func failure(kind Kind, s Strategy, title, message, raw string) Result {
	return Result{
		Kind:     kind,
		Strategy: s,
		Failure: &Failure{
			Kind:    kind,
			Message: message,
			Title:   title,
			Raw:     raw,
		},
	}
}
