package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acme = `{
	"contract_type": "sprint1",
	"client_company": "Acme Corp",
	"client_first": "John",
	"client_last": "Doe",
	"client_title": "CEO",
	"client_email": "john@acme.com",
	"amount": 5000,
	"deliverable": "SEO audit"
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submission.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCmd(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidatePrintsNormalizedRequest(t *testing.T) {
	out, err := execute(t, "validate", writeFile(t, acme))
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, "sprint1", req["variant"])
	assert.Equal(t, float64(500000), req["amount_cents"])
	assert.Equal(t, "SEO audit", req["scope"])
}

func TestValidateListsProblems(t *testing.T) {
	out, err := execute(t, "validate", writeFile(t, `{"contract_type":"sprint1","amount":"abc"}`))
	require.Error(t, err)
	assert.Contains(t, out, "missing: client_company")
	assert.Contains(t, out, "invalid: amount")
}

func TestValidateStrictRejectsUnknownType(t *testing.T) {
	sub := `{"contract_type":"retainer","client_company":"Acme Corp","client_first":"John","client_last":"Doe","client_title":"CEO","client_email":"john@acme.com","amount":"5000"}`
	_, err := execute(t, "validate", writeFile(t, sub))
	require.NoError(t, err)

	_, err = execute(t, "validate", "--strict", writeFile(t, sub))
	require.Error(t, err)
}

func TestRenderWritesDocx(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.docx")
	out, err := execute(t, "render", "-o", output, writeFile(t, acme))
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+output)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data[:2])
}

func TestSubmitPostsToWebhook(t *testing.T) {
	var gotKey, gotIdem string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhook/contract", r.URL.Path)
		gotKey = r.Header.Get("X-API-Key")
		gotIdem = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"success":false,"stage":"upload"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := execute(t, "submit", "--server", srv.URL, "--api-key", "k-1", "--idempotency-key", "order-7", writeFile(t, acme))

	require.Error(t, err, "non-2xx answers fail the command")
	assert.Contains(t, out, `"stage": "upload"`)
	assert.Equal(t, "k-1", gotKey)
	assert.Equal(t, "order-7", gotIdem)
	assert.Equal(t, "Acme Corp", gotBody["client_company"])
}

func TestConfigFileSuppliesServer(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)

	cfgPath := filepath.Join(t.TempDir(), "ctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server: "+srv.URL+"\n"), 0o600))

	_, err := execute(t, "--config", cfgPath, "submit", writeFile(t, acme))
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}
