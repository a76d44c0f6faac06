// Package providertest runs in-process fakes of the SignNow, Stripe, ClickUp and Slack
// APIs. Each fake records every call and lets a test override any route's response.
package providertest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Call is one recorded request.
type Call struct {
	Route  string
	Method string
	Path   string
	Header http.Header
	Body   []byte
	Form   url.Values
}

// JSON decodes the recorded body into v.
func (c Call) JSON(v any) error {
	return json.Unmarshal(c.Body, v)
}

type override struct {
	status int
	body   string
}

// Server is a fake provider API.
type Server struct {
	*httptest.Server

	router    chi.Router
	mu        sync.Mutex
	calls     []Call
	overrides map[string]override
}

func newServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{router: chi.NewRouter(), overrides: map[string]override{}}
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// handle registers route ("POST /document/{id}") with a default JSON responder.
func (s *Server) handle(method, pattern string, fn func(r *http.Request) any) {
	route := method + " " + pattern
	s.router.MethodFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		call := Call{Route: route, Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body}
		if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/x-www-form-urlencoded" {
			call.Form, _ = url.ParseQuery(string(body))
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.calls = append(s.calls, call)
		ov, overridden := s.overrides[route]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if overridden {
			w.WriteHeader(ov.status)
			_, _ = io.WriteString(w, ov.body)
			return
		}
		_ = json.NewEncoder(w).Encode(fn(r))
	})
}

// Respond overrides a route ("POST /document") with a fixed status and body.
func (s *Server) Respond(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[route] = override{status: status, body: body}
}

// Fail makes a route answer with status and a generic error body.
func (s *Server) Fail(route string, status int) {
	s.Respond(route, status, fmt.Sprintf(`{"error":{"message":"injected failure %d"},"errors":[{"message":"injected failure %d"}]}`, status, status))
}

// Calls returns every recorded call in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Routes returns the route of every recorded call in order.
func (s *Server) Routes() []string {
	calls := s.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Route
	}
	return out
}

// Called reports whether route was hit at least once.
func (s *Server) Called(route string) bool {
	_, ok := s.Last(route)
	return ok
}

// Last returns the most recent call to route.
func (s *Server) Last(route string) (Call, bool) {
	calls := s.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Route == route {
			return calls[i], true
		}
	}
	return Call{}, false
}
