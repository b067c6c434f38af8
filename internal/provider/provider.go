package provider

import (
	"context"
	"errors"
)

// ErrBadResponse is returned when a provider reply has no text field.
var ErrBadResponse = errors.New("unexpected provider response format")

// Provider is a text-completion backend.
type Provider interface {
	// Name identifies the provider in logs, metrics and history rows.
	Name() string

	// Configured reports whether a credential is available.
	Configured() bool

	// Generate sends prompt to model and returns the raw reply text. A reply
	// without a text field yields an error wrapping ErrBadResponse.
	Generate(ctx context.Context, model, prompt string) (string, error)
}
