package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_EchoesOriginalPrompt(t *testing.T) {
	meta := "You are...\n\nUser's original prompt:\n\"a cat \"on\" a mat\"\n\nTarget AI Model: **Midjourney (Image)**.\n"

	text, err := New().Generate(context.Background(), "any", meta)

	require.NoError(t, err)
	assert.Equal(t, "Enhanced prompt: a cat \"on\" a mat", text)
}

func TestGenerate_NoMarker(t *testing.T) {
	text, err := New().Generate(context.Background(), "any", "  plain  ")

	require.NoError(t, err)
	assert.Equal(t, "Enhanced prompt: plain", text)
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Generate(ctx, "any", "x")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Identity(t *testing.T) {
	p := New()
	assert.Equal(t, "mock", p.Name())
	assert.True(t, p.Configured())
}
