// Package oracle consults a language model for semantic guardrail verdicts.
//
// The model is treated as an unreliable collaborator: every consultation is
// bounded by a timeout and yields a tagged types.Outcome rather than an error,
// so each guardrail layer decides for itself whether a failure blocks.
package oracle

import "context"

// Oracle turns a prompt into completion text.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts an ordinary function to the Oracle interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
