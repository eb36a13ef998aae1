// Package config loads the rescuectl configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tracerat/rescuectl/internal/api"
)

// Config holds the connection settings for the dispatch API.
type Config struct {
	// Hostname of the API server, without a scheme.
	Hostname string `yaml:"hostname"`
	// Token is the bearer token used for authentication. Optional.
	Token string `yaml:"token"`
	// Plaintext disables TLS (ws:// instead of wss://).
	Plaintext bool `yaml:"plaintext"`
	// APIVersion selects the handler variant: "v2.0" or "v2.1".
	APIVersion string `yaml:"api_version"`
	// TimeoutSeconds bounds each call's wait for a reply.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns the configuration used when no file or flag overrides
// a setting.
func Default() Config {
	return Config{
		APIVersion:     api.VersionV21,
		TimeoutSeconds: 6,
	}
}

// Load reads a YAML config file on top of the defaults. Validation is
// deferred until after command-line overrides are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the merged configuration.
func (c Config) Validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	switch c.APIVersion {
	case api.VersionV20, api.VersionV21:
	default:
		return fmt.Errorf("unsupported api_version %q (supported: %s, %s)",
			c.APIVersion, api.VersionV20, api.VersionV21)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	return nil
}

// ReplyTimeout returns the call timeout as a duration.
func (c Config) ReplyTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
