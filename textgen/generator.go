// Package textgen defines the contract of the external text-generation
// collaborator and the client plumbing around it: an HTTP implementation, a
// retry wrapper with exponential backoff, and the closed persona set used to
// shape prompts for each procurement role.
package textgen

import "context"

// Request is one generation call. System optionally carries a persona
// instruction; Prompt is the user-facing content.
type Request struct {
	Prompt string
	System string
}

// Generator produces text for a request. Implementations may suspend on I/O
// and must honor context cancellation. Errors are classified via IsTransient
// and IsFatal so callers can decide what to retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
