package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "basetree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "score", "0.9")
	require.NoError(t, err)
	assert.Contains(t, out, "Signal: Elite")

	out, err = run(t, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "No signal yet")

	_, err = run(t, "score", "high")
	assert.Error(t, err)
}

func TestDonateCommand(t *testing.T) {
	var paid map[string]any
	checkout := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/pay", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&paid))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transactionHash":"0x4b1f0c9e2d7a6b5c3e8f9a0b1c2d3e4f"}`))
	}))
	defer checkout.Close()

	cfg := writeConfig(t, `
gateway:
  binding: hosted
  hosted_url: `+checkout.URL+`
sequence:
  growing: 5ms
  complete: 10ms
  settle: 15ms
`)

	out, err := run(t, "--config", cfg, "donate", "--amount", "0.755")
	require.NoError(t, err)

	assert.Equal(t, "0.76", paid["amount"])
	assert.Equal(t, "0x62233D5483515A79ac06CEcEbac7D399fDF8a99b", paid["to"])
	assert.Contains(t, out, "Donating 0.76 USDC to 0x6223…a99b")
	assert.Contains(t, out, "Donation sent. You just planted a tree feeling 🌿")
	assert.Contains(t, out, "https://basescan.org/tx/0x4b1f0c9e2d7a6b5c3e8f9a0b1c2d3e4f")
	assert.Contains(t, out, "🌱 Seed planted")
	assert.Contains(t, out, "🌳 Tree planted")
}

func TestDonateCommandReportsFailures(t *testing.T) {
	cfg := writeConfig(t, `
gateway:
  binding: hosted
`)

	_, err := run(t, "--config", cfg, "donate", "--preset", "1.00")
	assert.EqualError(t, err, "Open this mini app inside Base App or Warpcast to donate.")

	_, err = run(t, "--config", cfg, "donate", "--amount", "abc")
	assert.EqualError(t, err, "Enter a valid amount (example: 0.50).")
}
