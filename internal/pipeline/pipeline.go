// Package pipeline orchestrates the ask, dataset-ask, upload and schema flows.
//
// Every flow returns a response and an error. A non-nil error is either an
// input error (core.KindInput) or an unclassified failure; everything that
// goes wrong after input validation is reported in the response's Error field.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/leapstack-labs/askql/internal/catalog"
	"github.com/leapstack-labs/askql/internal/executor"
	"github.com/leapstack-labs/askql/internal/generator"
	"github.com/leapstack-labs/askql/internal/ingest"
	"github.com/leapstack-labs/askql/internal/script"
	"github.com/leapstack-labs/askql/pkg/core"
)

// PreviewRows caps the rows returned by the dataset-ask flow.
const PreviewRows = 5

// EmbeddedSource hands out the Embedded store.
type EmbeddedSource interface {
	Embedded(ctx context.Context) (core.Store, error)
}

// Deps are the components a Service orchestrates.
type Deps struct {
	Catalog   *catalog.Catalog
	Generator *generator.Generator
	Executor  *executor.Executor
	Ingestor  *ingest.Ingestor
	Scripts   *script.Synthesizer
	Embedded  EmbeddedSource
	Logger    *slog.Logger
}

// Service runs the request flows.
type Service struct {
	catalog   *catalog.Catalog
	generator *generator.Generator
	executor  *executor.Executor
	ingestor  *ingest.Ingestor
	scripts   *script.Synthesizer
	embedded  EmbeddedSource
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		catalog:   d.Catalog,
		generator: d.Generator,
		executor:  d.Executor,
		ingestor:  d.Ingestor,
		scripts:   d.Scripts,
		embedded:  d.Embedded,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// log returns a logger tagged with the request id and flow name.
// Calls without a request id get a fresh one.
func (s *Service) log(ctx context.Context, flow string) *slog.Logger {
	id := RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	return s.logger.With(slog.String("request_id", id), slog.String("flow", flow))
}

// recoverable reports whether err belongs in a response's Error field
// rather than failing the request.
func recoverable(err error) bool {
	switch core.KindOf(err) {
	case core.KindModel, core.KindSafety, core.KindExecution, core.KindIngest, core.KindBackendUnavailable:
		return true
	}
	return false
}

// explain returns the generator's explanation, asking the model when it gave none.
func (s *Service) explain(ctx context.Context, gen generator.Result) string {
	if gen.Explanation != "" {
		return gen.Explanation
	}
	return s.generator.Explain(ctx, gen.SQL)
}
