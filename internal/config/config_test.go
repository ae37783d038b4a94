package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:            3001,
		Environment:     "production",
		HSSURL:          "http://localhost:3000",
		ContaURL:        "https://plataforma.example.com/api",
		SummaURL:        "http://localhost:3000",
		HLRURL:          "http://localhost:3000",
		HubURL:          "https://plataforma.example.com/api",
		HTTPTimeout:     30 * time.Second,
		BSSAuthURL:      "https://auth.example.com/login",
		BSSAuthEmail:    "svc@example.com",
		BSSAuthPassword: "secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, "http://localhost:3000", cfg.HLRURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HTTP_TIMEOUT", "5000")
	t.Setenv("BSS_AUTH_URL", "https://bss.example.com/auth")
	t.Setenv("ENVIRONMENT", "development")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://bss.example.com/auth", cfg.BSSAuthURL)
	assert.False(t, cfg.IsProduction())
}

func TestValidate_Success(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_MissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing auth URL", func(c *Config) { c.BSSAuthURL = "" }, "BSS_AUTH_URL"},
		{"missing email", func(c *Config) { c.BSSAuthEmail = "" }, "BSS_AUTH_EMAIL"},
		{"missing password", func(c *Config) { c.BSSAuthPassword = "" }, "BSS_AUTH_PASSWORD"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_BadValues(t *testing.T) {
	cfg := validConfig()
	cfg.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid port")

	cfg = validConfig()
	cfg.HTTPTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "invalid HTTP timeout")

	cfg = validConfig()
	cfg.ContaURL = "not-a-url"
	assert.ErrorContains(t, cfg.Validate(), "CONTA_URL")

	cfg = validConfig()
	cfg.HubURL = "ftp://files.example.com"
	assert.ErrorContains(t, cfg.Validate(), "scheme must be http or https")
}
