package prompt

import (
	"testing"

	"shelf-scanner/backend/internal/agent/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScanInstructionDefault(t *testing.T) {
	assert.Equal(t, ScanInstruction, NewBuilder().BuildScanInstruction())
}

func TestBuildScanInstructionExtraRules(t *testing.T) {
	got := NewBuilder("Ignore magazines.", "  ", "Skip blurry spines.").BuildScanInstruction()

	assert.Contains(t, got, ScanInstruction)
	assert.Contains(t, got, "\n- Ignore magazines.")
	assert.Contains(t, got, "\n- Skip blurry spines.")
	assert.NotContains(t, got, "\n- \n")
}

func TestScanInstructionExampleIsAFencedBlock(t *testing.T) {
	block, ok := response.FencedBlock(ScanInstruction)

	require.True(t, ok)
	assert.Equal(t, `{"<book title>": "<one-line synopsis>"}`, block)
}
