package llm

import "context"

// Mode selects how the schema is conveyed to the model.
type Mode int

const (
	// ModeTool offers the schema as a single auto-chosen function tool; first call wins.
	ModeTool Mode = iota
	// ModePrompt embeds the outline and notes in the prompt and reads JSON from the content.
	ModePrompt
)

func (m Mode) String() string {
	if m == ModePrompt {
		return "prompt"
	}
	return "tool"
}

// Request is one provider round-trip. Tool is nil in prompt mode.
type Request struct {
	System string
	User   string
	Tool   *Tool
}

// Provider sends an extraction request and returns the raw arguments string: the first
// tool call's arguments when Tool is set, otherwise the message content.
//
// Implementations must report failures with the package error types: *TransportError,
// *ProviderHTTPError, *NoToolCallError or *DecodeError.
type Provider interface {
	Name() string
	Send(ctx context.Context, req Request) (string, error)
}
