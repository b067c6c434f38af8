package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/PromptEnhancerPro/internal/provider"
	"github.com/utafrali/PromptEnhancerPro/pkg/httpclient"
)

const (
	providerName = "gemini"
	tracerName   = "github.com/utafrali/PromptEnhancerPro/internal/provider/gemini"
	// maxResponseBody caps how much of a success reply is decoded.
	maxResponseBody = 4 << 20
)

// DefaultBaseURL is the public Gemini Developer API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Config configures the Gemini REST client.
type Config struct {
	APIKey  string
	BaseURL string
}

// Client calls the Gemini generateContent REST method.
type Client struct {
	http    httpclient.Doer
	apiKey  string
	baseURL string
}

// New creates a Gemini client sending requests through doer.
func New(doer httpclient.Doer, cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{http: doer, apiKey: cfg.APIKey, baseURL: base}
}

// Name returns "gemini".
func (c *Client) Name() string { return providerName }

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends one generateContent request. It is never retried here.
func (c *Client) Generate(ctx context.Context, model, prompt string) (text string, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gemini.generateContent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gen_ai.system", providerName),
			attribute.String("gen_ai.request.model", model),
			attribute.Int("gen_ai.prompt.length", len(prompt)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := c.baseURL + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpclient.ParseResponseError(resp, providerName)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	var parsed generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decode body: %v", provider.ErrBadResponse, err)
	}
	return extractText(&parsed)
}

// extractText joins the text parts of the first candidate.
func extractText(r *generateResponse) (string, error) {
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)", provider.ErrBadResponse, r.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", provider.ErrBadResponse)
	}

	cand := r.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("%w: candidate has no content (finish reason %q)", provider.ErrBadResponse, cand.FinishReason)
	}

	var (
		b     strings.Builder
		found bool
	)
	for _, p := range cand.Content.Parts {
		if p.Text == nil {
			continue
		}
		found = true
		b.WriteString(*p.Text)
	}
	if !found {
		return "", fmt.Errorf("%w: candidate has no text parts", provider.ErrBadResponse)
	}
	return b.String(), nil
}
