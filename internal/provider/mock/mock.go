// Package mock is an offline provider that echoes the user's draft back.
package mock

import (
	"context"
	"strings"
)

const (
	originalMarker = "User's original prompt:\n\""
	originalEnd    = "\"\n\nTarget AI Model: "
)

// Provider answers every request locally.
type Provider struct{}

// New creates a mock provider.
func New() *Provider { return &Provider{} }

// Name returns "mock".
func (*Provider) Name() string { return "mock" }

// Configured is always true.
func (*Provider) Configured() bool { return true }

// Generate replies with the quoted original prompt behind a preamble, the
// way a chatty model would.
func (*Provider) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "Enhanced prompt: " + originalPrompt(prompt), nil
}

func originalPrompt(metaPrompt string) string {
	start := strings.Index(metaPrompt, originalMarker)
	if start < 0 {
		return strings.TrimSpace(metaPrompt)
	}
	rest := metaPrompt[start+len(originalMarker):]
	if end := strings.Index(rest, originalEnd); end >= 0 {
		return rest[:end]
	}
	return rest
}
