package deps

import (
	"context"
)

// Image is an uploaded shelf photo
type Image struct {
	Data     []byte
	MIMEType string
}

// LLMClient abstracts the multimodal model call that produces raw model output.
// instruction is the system instruction for the call. Clients built around a
// fixed instruction accept an empty one and reject any other.
type LLMClient interface {
	GenerateFromImage(ctx context.Context, instruction string, image Image) (string, error)
}
