// Package config provides configuration management for the askql CLI.
package config

// Default configuration values.
const (
	DefaultPort         = 3000
	DefaultCORSOrigin   = "*"
	DefaultPrimaryDSN   = "postgresql://localhost:5432/postgres"
	DefaultEmbeddedPath = "ai_copilot.db"
	DefaultLLMProvider  = "openai"
	DefaultBatchSize    = 200
	DefaultPreviewRows  = 5
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Config holds all CLI configuration options.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Primary  PrimaryConfig  `koanf:"primary"`
	Embedded EmbeddedConfig `koanf:"embedded"`
	LLM      LLMConfig      `koanf:"llm"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port       int    `koanf:"port"`
	CORSOrigin string `koanf:"cors_origin"`
}

// PrimaryConfig addresses the Primary store.
type PrimaryConfig struct {
	DSN     string `koanf:"dsn"`
	Enabled bool   `koanf:"enabled"`
}

// EmbeddedConfig locates the Embedded store file.
type EmbeddedConfig struct {
	Path string `koanf:"path"`
}

// LLMConfig selects the language model provider.
type LLMConfig struct {
	Provider          string  `koanf:"provider"`
	APIKey            string  `koanf:"api_key"`
	BaseURL           string  `koanf:"base_url"`
	Model             string  `koanf:"model"`
	MaxRetries        int     `koanf:"max_retries"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// IngestConfig tunes dataset ingestion.
type IngestConfig struct {
	BatchSize   int `koanf:"batch_size"`
	PreviewRows int `koanf:"preview_rows"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaults returns the lowest-precedence configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"server.port":             DefaultPort,
		"server.cors_origin":      DefaultCORSOrigin,
		"primary.dsn":             DefaultPrimaryDSN,
		"primary.enabled":         true,
		"embedded.path":           DefaultEmbeddedPath,
		"llm.provider":            DefaultLLMProvider,
		"llm.max_retries":         2,
		"llm.requests_per_second": 0.0,
		"llm.burst":               1,
		"ingest.batch_size":       DefaultBatchSize,
		"ingest.preview_rows":     DefaultPreviewRows,
		"log.level":               DefaultLogLevel,
		"log.format":              DefaultLogFormat,
	}
}
