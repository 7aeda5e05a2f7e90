package pipeline

import (
	"log/slog"

	"github.com/leapstack-labs/askql/internal/backend"
	"github.com/leapstack-labs/askql/internal/catalog"
	"github.com/leapstack-labs/askql/internal/executor"
	"github.com/leapstack-labs/askql/internal/generator"
	"github.com/leapstack-labs/askql/internal/ingest"
	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/internal/script"
)

// Options tune a Service assembled by Build.
type Options struct {
	Ingest ingest.Config
	// ScriptDBPath is the database file generated scripts connect to.
	ScriptDBPath string
}

// Build assembles a Service over router. provider may be nil.
func Build(router *backend.Router, provider llm.Provider, opts Options, logger *slog.Logger, metrics *observe.Metrics) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return New(Deps{
		Catalog:   catalog.New(router),
		Generator: generator.New(provider, logger),
		Executor:  executor.New(router, logger, metrics),
		Ingestor:  ingest.New(router, opts.Ingest, logger, metrics),
		Scripts:   script.New(provider, opts.ScriptDBPath, logger),
		Embedded:  router,
		Logger:    logger,
	})
}
