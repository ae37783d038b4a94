// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort        = 3001
	DefaultHTTPTimeout = 30 * time.Second
)

// Config captures the service's external configuration. The struct returned by
// Load is considered immutable; consumers hold a pointer to a snapshot and
// never mutate it.
type Config struct {
	// Port is the TCP port the BFF listens on.
	Port int

	// Environment is the deployment environment ("production" suppresses
	// diagnostic detail in error responses).
	Environment string

	// Downstream service base URLs.
	HSSURL   string
	ContaURL string
	SummaURL string
	HLRURL   string
	HubURL   string

	// HTTPTimeout is the default per-attempt deadline for outbound calls.
	HTTPTimeout time.Duration

	// BSS credential authority settings. Required: the token manager cannot
	// operate without them.
	BSSAuthURL      string
	BSSAuthEmail    string
	BSSAuthPassword string
}

// Load reads the configuration from the environment and returns a snapshot.
// Values are not validated here; call Validate before using the config.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("HSS_URL", "http://localhost:3000")
	v.SetDefault("CONTA_URL", "http://localhost:3000")
	v.SetDefault("SUMMA_URL", "http://localhost:3000")
	v.SetDefault("HLR_URL", "http://localhost:3000")
	v.SetDefault("HUB_URL", "http://localhost:3000")
	v.SetDefault("HTTP_TIMEOUT", int(DefaultHTTPTimeout/time.Millisecond))

	return &Config{
		Port:            v.GetInt("PORT"),
		Environment:     v.GetString("ENVIRONMENT"),
		HSSURL:          v.GetString("HSS_URL"),
		ContaURL:        v.GetString("CONTA_URL"),
		SummaURL:        v.GetString("SUMMA_URL"),
		HLRURL:          v.GetString("HLR_URL"),
		HubURL:          v.GetString("HUB_URL"),
		HTTPTimeout:     time.Duration(v.GetInt("HTTP_TIMEOUT")) * time.Millisecond,
		BSSAuthURL:      v.GetString("BSS_AUTH_URL"),
		BSSAuthEmail:    v.GetString("BSS_AUTH_EMAIL"),
		BSSAuthPassword: v.GetString("BSS_AUTH_PASSWORD"),
	}
}

// Validate checks that the configuration is usable. It fails fast on missing
// BSS credentials since every authenticated downstream call depends on them.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("invalid HTTP timeout %s: must be positive", c.HTTPTimeout)
	}

	if c.BSSAuthURL == "" {
		return fmt.Errorf("missing required environment variable: BSS_AUTH_URL")
	}
	if c.BSSAuthEmail == "" {
		return fmt.Errorf("missing required environment variable: BSS_AUTH_EMAIL")
	}
	if c.BSSAuthPassword == "" {
		return fmt.Errorf("missing required environment variable: BSS_AUTH_PASSWORD")
	}

	urls := map[string]string{
		"BSS_AUTH_URL": c.BSSAuthURL,
		"HSS_URL":      c.HSSURL,
		"CONTA_URL":    c.ContaURL,
		"SUMMA_URL":    c.SummaURL,
		"HLR_URL":      c.HLRURL,
		"HUB_URL":      c.HubURL,
	}
	for name, raw := range urls {
		if err := validateURL(raw); err != nil {
			return errors.Wrap(err, name)
		}
	}

	return nil
}

// IsProduction reports whether diagnostic details should be suppressed in
// error responses.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// validateURL checks that a URL is well-formed with an http(s) scheme.
func validateURL(raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid URL %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}
