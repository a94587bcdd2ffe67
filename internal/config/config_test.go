package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Generator.Timeout.Duration != 2*time.Minute {
		t.Errorf("Generator.Timeout = %v, want 2m", cfg.Generator.Timeout.Duration)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
[server]
port = "9090"

[generator]
model = "gemini-2.5-pro"
timeout = "45s"

[queue]
workers = 2

[reports]
default_currency = "EUR"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Generator.Model != "gemini-2.5-pro" {
		t.Errorf("Generator.Model = %q", cfg.Generator.Model)
	}
	if cfg.Generator.Timeout.Duration != 45*time.Second {
		t.Errorf("Generator.Timeout = %v, want 45s", cfg.Generator.Timeout.Duration)
	}
	if cfg.Queue.Workers != 2 {
		t.Errorf("Queue.Workers = %d, want 2", cfg.Queue.Workers)
	}
	if cfg.Queue.BufferSize != 100 {
		t.Errorf("Queue.BufferSize = %d, want default 100", cfg.Queue.BufferSize)
	}
	if cfg.Reports.DefaultCurrency != "EUR" {
		t.Errorf("Reports.DefaultCurrency = %q, want EUR", cfg.Reports.DefaultCurrency)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[archive]
bucket = "from-file"
`)
	t.Setenv("GCS_BUCKET", "from-env")
	t.Setenv("GEMINI_API_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive.Bucket != "from-env" {
		t.Errorf("Archive.Bucket = %q, want from-env", cfg.Archive.Bucket)
	}
	if cfg.Generator.APIKey != "secret" {
		t.Errorf("Generator.APIKey not taken from env")
	}
}

func TestLoad_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "[storage]\nbackend = \"postgres\"\n"},
		{"bigquery without project", "[storage]\nbackend = \"bigquery\"\n"},
		{"zero workers", "[queue]\nworkers = 0\n"},
		{"bad currency", "[reports]\ndefault_currency = \"EURO\"\n"},
		{"notion token only", "[notion]\ntoken = \"t\"\n"},
		{"bad duration", "[generator]\ntimeout = \"soon\"\n"},
		{"malformed toml", "[server\nport = 1\n"},
	}

	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Errorf("Load() expected error for %s", tt.name)
			}
		})
	}
}
