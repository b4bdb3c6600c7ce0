package prompt

import (
	"strings"
)

// Builder constructs prompts for the scanner
type Builder struct {
	extraRules []string
}

// NewBuilder creates a new prompt builder. Extra rules are appended to the
// scan instruction, one per line.
func NewBuilder(extraRules ...string) *Builder {
	return &Builder{extraRules: extraRules}
}

// BuildScanInstruction returns the system instruction for a shelf scan
func (b *Builder) BuildScanInstruction() string {
	if len(b.extraRules) == 0 {
		return ScanInstruction
	}

	var sb strings.Builder
	sb.WriteString(ScanInstruction)
	sb.WriteString("\n")
	for _, rule := range b.extraRules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		sb.WriteString("\n- ")
		sb.WriteString(rule)
	}
	return sb.String()
}
