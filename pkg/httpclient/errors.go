package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// UpstreamError describes a non-2xx response from an external API.
type UpstreamError struct {
	Service    string
	StatusCode int
	// Status is the API's symbolic status (e.g. "RESOURCE_EXHAUSTED") when present.
	Status  string
	Message string
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s returned status %d", e.Service, e.StatusCode)
	if e.Status != "" {
		b.WriteString(" " + e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// Temporary reports whether retrying later may succeed.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// apiErrorBody matches the Google API error envelope
// {"error":{"code":429,"message":"...","status":"RESOURCE_EXHAUSTED"}}.
type apiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns it as an *UpstreamError. Structured error envelopes keep their
// message and status; anything else keeps a trimmed copy of the raw body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	upErr := &UpstreamError{Service: service, StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		upErr.Message = fmt.Sprintf("read error body: %v", err)
		return upErr
	}

	var parsed apiErrorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		upErr.Status = parsed.Error.Status
		upErr.Message = parsed.Error.Message
		return upErr
	}

	upErr.Message = strings.TrimSpace(string(body))
	return upErr
}
