/*
# Module: gateway/transport.go
Shared HTTP transport and client options for payment bindings.

## Linked Modules
- [gateway/gateway](./gateway.go) - Error type produced from provider responses

## Tags
payments, http, api-client

## Exports
Option, WithHTTPClient, WithLogger, WithUserAgent

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "gateway/transport.go" ;
    code:description "Shared HTTP transport and client options for payment bindings" ;
    code:linksTo [
        code:name "gateway/gateway" ;
        code:path "./gateway.go" ;
        code:relationship "Error type produced from provider responses"
    ] ;
    code:exports :Option, :WithHTTPClient, :WithLogger, :WithUserAgent ;
    code:tags "payments", "http", "api-client" .
<!-- End LinkedDoc RDF -->
*/
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a payment binding
type Option func(*transport)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		t.httpClient = client
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger zerolog.Logger) Option {
	return func(t *transport) {
		t.log = logger
	}
}

// WithUserAgent sets a custom User-Agent header
func WithUserAgent(ua string) Option {
	return func(t *transport) {
		t.userAgent = ua
	}
}

type transport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	log        zerolog.Logger
}

func newTransport(baseURL, apiKey string, opts []Option) transport {
	t := transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "BaseTree/1.0",
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// errorBody covers the error shapes both providers return
type errorBody struct {
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// do sends a JSON request and decodes a 2xx response into out.
// Non-2xx responses are returned as *Error, everything else wraps ErrTransport.
func (t transport) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal request: %w", ErrTransport, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to call payment provider: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	t.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("payment provider call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %w", ErrTransport, err)
	}
	return nil
}

func decodeError(status int, raw []byte) *Error {
	gwErr := &Error{Status: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		gwErr.Message = strings.TrimSpace(string(raw))
		return gwErr
	}

	gwErr.Reason = body.Reason
	gwErr.Message = body.Message
	if gwErr.Message == "" && len(body.Error) > 0 {
		gwErr.Message = errorMessage(body.Error)
	}
	return gwErr
}

// errorMessage reads an error field that is either a string or {"message": "..."}
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return ""
}
