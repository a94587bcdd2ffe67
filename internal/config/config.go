// Package config loads service configuration from a TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Generator GeneratorConfig `toml:"generator"`
	Queue     QueueConfig     `toml:"queue"`
	Archive   ArchiveConfig   `toml:"archive"`
	Notion    NotionConfig    `toml:"notion"`
	Reports   ReportsConfig   `toml:"reports"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `toml:"port"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend         string `toml:"backend"` // "sqlite" or "bigquery"
	SQLitePath      string `toml:"sqlite_path"`
	BigQueryProject string `toml:"bigquery_project"`
	BigQueryDataset string `toml:"bigquery_dataset"`
}

// GeneratorConfig configures the Gemini narrative generator.
type GeneratorConfig struct {
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key,omitempty"`
	Temperature float32  `toml:"temperature"`
	Timeout     Duration `toml:"timeout"`
}

// QueueConfig sizes the in-memory job queue.
type QueueConfig struct {
	BufferSize int `toml:"buffer_size"`
	Workers    int `toml:"workers"`
}

// ArchiveConfig enables the GCS archive of completed reports.
type ArchiveConfig struct {
	Bucket string `toml:"bucket,omitempty"`
	Prefix string `toml:"prefix"`
}

// NotionConfig enables publishing completed reports to a Notion database.
type NotionConfig struct {
	Token      string `toml:"token,omitempty"`
	DatabaseID string `toml:"database_id,omitempty"`
}

// ReportsConfig holds report defaults.
type ReportsConfig struct {
	DefaultCurrency string `toml:"default_currency"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Duration is a time.Duration that decodes from TOML strings like "90s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Storage: StorageConfig{
			Backend:         "sqlite",
			SQLitePath:      "data/reports.db",
			BigQueryDataset: "finance",
		},
		Generator: GeneratorConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.4,
			Timeout:     Duration{2 * time.Minute},
		},
		Queue: QueueConfig{
			BufferSize: 100,
			Workers:    5,
		},
		Archive: ArchiveConfig{Prefix: "reports"},
		Reports: ReportsConfig{DefaultCurrency: "USD"},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads the config file at path, returning defaults when path is empty or the file
// doesn't exist. Environment variables override file values.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"GEMINI_API_KEY", &cfg.Generator.APIKey},
		{"GCS_BUCKET", &cfg.Archive.Bucket},
		{"NOTION_TOKEN", &cfg.Notion.Token},
		{"NOTION_DATABASE_ID", &cfg.Notion.DatabaseID},
		{"GOOGLE_CLOUD_PROJECT", &cfg.Storage.BigQueryProject},
		{"REPORTS_STORAGE_BACKEND", &cfg.Storage.Backend},
		{"REPORTS_SQLITE_PATH", &cfg.Storage.SQLitePath},
		{"PORT", &cfg.Server.Port},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the combinations that would fail later at startup.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case "bigquery":
		if c.Storage.BigQueryProject == "" {
			return fmt.Errorf("storage.bigquery_project (or GOOGLE_CLOUD_PROJECT) is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1")
	}
	if len(c.Reports.DefaultCurrency) != 3 {
		return fmt.Errorf("reports.default_currency must be a 3-letter code")
	}
	if (c.Notion.Token == "") != (c.Notion.DatabaseID == "") {
		return fmt.Errorf("notion.token and notion.database_id must be set together")
	}
	return nil
}
