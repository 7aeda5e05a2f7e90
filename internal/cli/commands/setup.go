package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/askql/internal/backend"
	"github.com/leapstack-labs/askql/internal/cli/config"
	"github.com/leapstack-labs/askql/internal/ingest"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/internal/pipeline"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/spf13/cobra"
)

// App holds common dependencies for CLI commands.
type App struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Metrics *observe.Metrics
	Router  *backend.Router
	Service *pipeline.Service
}

// NewApp wires the store router, the model provider and the pipeline from
// the current configuration. The caller must Close the returned App.
func NewApp(cmd *cobra.Command) (*App, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	metrics := observe.NewMetrics()

	router := backend.New(backend.Config{
		Primary:        core.StoreConfig{Type: "postgres", DSN: cfg.Primary.DSN},
		PrimaryEnabled: cfg.Primary.Enabled,
		Embedded:       core.StoreConfig{Type: "sqlite", Path: cfg.Embedded.Path},
	}, logger, backend.WithMetrics(metrics))

	provider, err := llm.New(llm.Config{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		MaxRetries:        cfg.LLM.MaxRetries,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}, logger, metrics)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logger.Warn("no API key configured, SQL generation is disabled", slog.String("provider", cfg.LLM.Provider))
		provider = nil
	case err != nil:
		_ = router.Close()
		return nil, fmt.Errorf("failed to create model provider: %w", err)
	}

	service := pipeline.Build(router, provider, pipeline.Options{
		Ingest:       ingest.Config{BatchSize: cfg.Ingest.BatchSize, PreviewRows: cfg.Ingest.PreviewRows},
		ScriptDBPath: cfg.Embedded.Path,
	}, logger, metrics)

	return &App{
		Cfg:     cfg,
		Logger:  logger,
		Metrics: metrics,
		Router:  router,
		Service: service,
	}, nil
}

// Close releases the store connections.
func (a *App) Close() error {
	return a.Router.Close()
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise loads defaults,
// askql.yaml and the environment.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}
