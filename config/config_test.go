package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmdrakib/BaseTree/gateway"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	d := cfg.DonationConfig()
	assert.Equal(t, "500", d.MaxAmount.String())
	assert.Equal(t, 380*time.Millisecond, d.Schedule.Growing)
	assert.Equal(t, gateway.BindingAuto, cfg.Binding())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basetree.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  trust_proxy: true
donation:
  presets: ["0.25", "2.00"]
  default_preset: "2.00"
  max_amount: "100"
gateway:
  binding: hosted
  hosted_url: https://pay.example
sequence:
  growing: 100ms
  complete: 200ms
  settle: 300ms
`), 0o600))

	t.Setenv("BASETREE_LOG_LEVEL", "debug")
	t.Setenv("BASETREE_GATEWAY_TIMEOUT", "45s")
	t.Setenv("NEYNAR_API_KEY", "neynar-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.TrustProxy)
	assert.Equal(t, []string{"0.25", "2.00"}, cfg.Donation.Presets)
	assert.Equal(t, "2.00", cfg.Donation.DefaultPreset)
	assert.Equal(t, gateway.BindingHosted, cfg.Binding())
	assert.Equal(t, "https://pay.example", cfg.Gateway.HostedURL)
	assert.Equal(t, 100*time.Millisecond, cfg.Sequence.Growing)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "neynar-key", cfg.Neynar.APIKey)
	assert.Equal(t, "100", cfg.DonationConfig().MaxAmount.String())

	// untouched keys keep their defaults
	assert.Equal(t, "0x62233D5483515A79ac06CEcEbac7D399fDF8a99b", cfg.Donation.Recipient)
	assert.Equal(t, int32(6), cfg.Gateway.TokenDecimals)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad recipient", func(c *Config) { c.Donation.Recipient = "0x1234" }},
		{"no presets", func(c *Config) { c.Donation.Presets = nil }},
		{"unnormalized preset", func(c *Config) { c.Donation.Presets = []string{"0.5"} }},
		{"default preset not listed", func(c *Config) { c.Donation.DefaultPreset = "3.00" }},
		{"bad fallback", func(c *Config) { c.Donation.FallbackAmount = "abc" }},
		{"bad max", func(c *Config) { c.Donation.MaxAmount = "-1" }},
		{"bad binding", func(c *Config) { c.Gateway.Binding = "paypal" }},
		{"unordered schedule", func(c *Config) { c.Sequence.Complete = c.Sequence.Growing }},
		{"dynamodb without table", func(c *Config) { c.Cache.Backend = "dynamodb"; c.Cache.Table = "" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "redis" }},
		{"negative rate", func(c *Config) { c.Rate.RPS = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
