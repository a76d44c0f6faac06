package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerClassifiesFailures(t *testing.T) {
	cases := []struct {
		status   int
		category ErrorCategory
		retry    bool
	}{
		{http.StatusUnauthorized, ErrorAuthentication, false},
		{http.StatusForbidden, ErrorAuthentication, false},
		{http.StatusNotFound, ErrorNotFound, false},
		{http.StatusBadRequest, ErrorRejected, false},
		{http.StatusTooManyRequests, ErrorRateLimited, true},
		{http.StatusBadGateway, ErrorProviderOutage, true},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			c := &Caller{ProviderID: "fake", BaseURL: srv.URL}
			_, err := c.Do(context.Background(), Request{Operation: "probe", Method: http.MethodGet, Path: "/x"})

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.category, pe.Category)
			assert.Equal(t, tc.retry, pe.Retryable)
			assert.Equal(t, tc.status, pe.StatusCode)
			assert.Equal(t, "probe", pe.Operation)
		})
	}
}

func TestCallerAppliesAuthQueryAndErrorDecoder(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"amount too small"}}`))
	}))
	defer srv.Close()

	c := &Caller{
		ProviderID:  "fake",
		BaseURL:     srv.URL + "/",
		Authorize:   func(h http.Header) { h.Set("Authorization", "Bearer sk_test") },
		DecodeError: func([]byte) string { return "amount too small" },
	}
	_, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/v1/things",
		Query:  url.Values{"limit": {"1"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "limit=1", gotQuery)
}

func TestCallerJSONDecodeFailureIsBadData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := &Caller{ProviderID: "fake", BaseURL: srv.URL}
	var out struct{ ID string }
	err := c.JSON(context.Background(), Request{Method: http.MethodGet, Path: "/"}, &out)
	assert.Equal(t, ErrorBadData, GetCategory(err))
}

func TestCallerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Caller{ProviderID: "fake", BaseURL: srv.URL, HTTP: &http.Client{Timeout: 20 * time.Millisecond}}
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	assert.Equal(t, ErrorTimeout, GetCategory(err))
	assert.True(t, IsRetryable(err))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "****", Mask("abc"))
	assert.Equal(t, "sk_t****", Mask("sk_test_123"))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 200))

	// "é" is two bytes, so byte 200 falls inside a rune.
	body := strings.Repeat("a", 199) + strings.Repeat("é", 10)
	got := truncate(body, 200)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 199)+"...", got)

	got = truncate(strings.Repeat("日本", 100), 200)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 203)
}
