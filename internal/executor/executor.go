// Package executor runs validated SQL and returns its rows.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/internal/safety"
	"github.com/leapstack-labs/askql/pkg/core"
)

// DefaultPreviewRows caps the rows returned by Preview when n <= 0.
const DefaultPreviewRows = 5

// Querier runs a statement that returns rows. Both the Router and a
// single core.Store satisfy it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) ([]core.Row, error)
}

// Executor gates every statement through the safety validator before running it.
type Executor struct {
	router  Querier
	logger  *slog.Logger
	metrics *observe.Metrics
}

// New creates an Executor that runs statements through router.
func New(router Querier, logger *slog.Logger, metrics *observe.Metrics) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{router: router, logger: logger, metrics: metrics}
}

// Check validates sql and counts rejections.
func (e *Executor) Check(sql string) safety.Verdict {
	v := safety.Validate(sql)
	if !v.Valid {
		e.metrics.SafetyRejected()
		e.logger.Info("sql rejected", slog.String("reason", v.Error))
	}
	return v
}

// Run executes sql through the router and returns every row.
func (e *Executor) Run(ctx context.Context, sql string) ([]core.Row, error) {
	return e.run(ctx, e.router, sql)
}

// Preview executes sql against q and returns at most n rows.
func (e *Executor) Preview(ctx context.Context, q Querier, sql string, n int) ([]core.Row, error) {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	rows, err := e.run(ctx, q, sql)
	if err != nil {
		return nil, err
	}
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (e *Executor) run(ctx context.Context, q Querier, sql string) ([]core.Row, error) {
	if v := e.Check(sql); !v.Valid {
		return nil, core.E(core.KindSafety, "validate", errors.New(v.Error))
	}

	start := time.Now()
	rows, err := q.Query(ctx, sql)
	if err != nil {
		kind := core.KindExecution
		if core.IsKind(err, core.KindBackendUnavailable) {
			kind = core.KindBackendUnavailable
		}
		return nil, core.E(kind, "SQL execution failed", err)
	}
	if rows == nil {
		rows = []core.Row{}
	}
	e.logger.Debug("sql executed", slog.Int("rows", len(rows)), slog.Duration("elapsed", time.Since(start)))
	return rows, nil
}
