package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
hostname: api.example.com
token: secret
plaintext: true
api_version: v2.0
timeout_seconds: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Hostname != "api.example.com" || cfg.Token != "secret" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Plaintext {
		t.Error("expected plaintext true")
	}
	if cfg.APIVersion != "v2.0" {
		t.Errorf("expected v2.0, got %s", cfg.APIVersion)
	}
	if cfg.ReplyTimeout() != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.ReplyTimeout())
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `hostname: api.example.com`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIVersion != "v2.1" {
		t.Errorf("expected default api version v2.1, got %s", cfg.APIVersion)
	}
	if cfg.TimeoutSeconds != 6 {
		t.Errorf("expected default timeout 6s, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Plaintext {
		t.Error("expected TLS by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing hostname", func(c *Config) { c.Hostname = "" }, "hostname"},
		{"bad version", func(c *Config) { c.APIVersion = "v9.9" }, "api_version"},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, "timeout_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Hostname = "api.example.com"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
