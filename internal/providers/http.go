package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const maxResponseBytes = 10 << 20

// Request describes one REST call relative to a Caller's BaseURL.
type Request struct {
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Header      http.Header
}

// ErrorDecoder extracts the provider's own error message from a failure body.
// It returns "" when the body is not in the provider's error format.
type ErrorDecoder func(body []byte) string

// Caller is the shared transport for the hand-written provider clients: it applies
// auth, classifies failures into ProviderErrors and decodes JSON bodies.
type Caller struct {
	ProviderID  string
	BaseURL     string
	HTTP        *http.Client
	Authorize   func(h http.Header)
	DecodeError ErrorDecoder
}

// Do executes the request and returns the raw body of a 2xx response.
func (c *Caller) Do(ctx context.Context, r Request) ([]byte, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + r.Path
	if len(r.Query) > 0 {
		endpoint += "?" + r.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, r.Body)
	if err != nil {
		return nil, c.fail(r, ErrorInternal, 0, "build request", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Authorize != nil {
		c.Authorize(req.Header)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, c.fail(r, categoryForTransport(err), 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(r, categoryForTransport(err), resp.StatusCode, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ""
		if c.DecodeError != nil {
			msg = c.DecodeError(body)
		}
		if msg == "" {
			msg = truncate(string(body), 200)
		}
		return nil, c.fail(r, CategoryForStatus(resp.StatusCode), resp.StatusCode,
			fmt.Sprintf("status %d: %s", resp.StatusCode, msg), nil)
	}
	return body, nil
}

// JSON executes the request and decodes a 2xx body into out.
func (c *Caller) JSON(ctx context.Context, r Request, out any) error {
	body, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(r, ErrorBadData, http.StatusOK, "decode response", err)
	}
	return nil
}

// Fail builds a categorized error for a check the client performs on a decoded body.
func (c *Caller) Fail(operation string, category ErrorCategory, message string) *ProviderError {
	return c.fail(Request{Operation: operation}, category, 0, message, nil)
}

func (c *Caller) fail(r Request, category ErrorCategory, status int, message string, underlying error) *ProviderError {
	pe := NewProviderError(category, c.ProviderID, message, underlying)
	pe.Operation = r.Operation
	pe.StatusCode = status
	return pe
}

// JSONBody encodes v for a JSON request.
func JSONBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// FormBody encodes values for an application/x-www-form-urlencoded request.
func FormBody(values url.Values) io.Reader {
	return strings.NewReader(values.Encode())
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	// Never split a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
