package response

import (
	"encoding/json"
	"regexp"

	"github.com/kaptinlin/jsonrepair"
)

// fencedJSONRegex matches the first ```json fenced block holding an object.
// The lazy body still runs to the last '}' before the closing fence, because
// the closing fence must follow the captured brace.
var fencedJSONRegex = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// Extraction is the candidate chosen by Extract.
type Extraction struct {
	Candidate string
	Strategy  Strategy
}

// Found reports whether some strategy produced a parsable candidate.
func (e Extraction) Found() bool {
	return e.Strategy != StrategyNone
}

// FencedBlock returns the object literal inside the first ```json block, if any.
func FencedBlock(raw string) (string, bool) {
	matches := fencedJSONRegex.FindStringSubmatch(raw)
	if len(matches) > 1 {
		return matches[1], true
	}
	return "", false
}

// Extract returns the first candidate that parses as JSON, trying the fenced
// block and then the whole text.
func Extract(raw string) Extraction {
	return extract(raw, false)
}

func extract(raw string, repair bool) Extraction {
	if block, ok := FencedBlock(raw); ok && json.Valid([]byte(block)) {
		return Extraction{Candidate: block, Strategy: StrategyFencedBlock}
	}

	if json.Valid([]byte(raw)) {
		return Extraction{Candidate: raw, Strategy: StrategyWholeText}
	}

	if repair {
		if repaired, err := jsonrepair.JSONRepair(raw); err == nil && json.Valid([]byte(repaired)) {
			return Extraction{Candidate: repaired, Strategy: StrategyRepaired}
		}
	}

	return Extraction{Strategy: StrategyNone}
}
