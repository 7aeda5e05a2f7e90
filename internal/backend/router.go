// Package backend routes every store operation to the Primary store first
// and falls back to the Embedded store when the Primary store fails.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
)

// StoreFactory creates an unconnected store for a config.
type StoreFactory func(cfg core.StoreConfig, logger *slog.Logger) (core.Store, error)

// Config selects the two stores.
type Config struct {
	Primary        core.StoreConfig
	PrimaryEnabled bool
	Embedded       core.StoreConfig
}

// seeder is implemented by stores that can create the demonstration table.
type seeder interface {
	SeedDemo(ctx context.Context) error
}

// lazyStore is a store handle constructed at most once.
// A failed construction is not cached, so the next call retries it.
type lazyStore struct {
	name    string
	cfg     core.StoreConfig
	mu      sync.Mutex
	current atomic.Pointer[storeBox]
}

type storeBox struct {
	store core.Store
}

// Router owns the lazily-initialized Primary and Embedded store handles.
// Nothing about a previous call's outcome influences the next one.
type Router struct {
	primary        *lazyStore
	embedded       *lazyStore
	primaryEnabled bool
	newStore       StoreFactory
	logger         *slog.Logger
	metrics        *observe.Metrics
}

// Option configures a Router.
type Option func(*Router)

// WithStoreFactory overrides how stores are constructed.
func WithStoreFactory(f StoreFactory) Option {
	return func(r *Router) { r.newStore = f }
}

// WithMetrics records fallbacks in m.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// New creates a Router. No connection is opened until the first operation.
// If logger is nil, a discard logger is used.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	primaryEnabled := cfg.PrimaryEnabled && cfg.Primary.DSN != ""
	r := &Router{
		primary:        &lazyStore{name: "primary", cfg: cfg.Primary},
		embedded:       &lazyStore{name: "embedded", cfg: cfg.Embedded},
		primaryEnabled: primaryEnabled,
		newStore:       adapter.NewStore,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// get returns the connected store, constructing it on first use.
// The mutex guards construction only; steady-state calls take the atomic fast path.
func (r *Router) get(ctx context.Context, ls *lazyStore) (core.Store, error) {
	if box := ls.current.Load(); box != nil {
		return box.store, nil
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if box := ls.current.Load(); box != nil {
		return box.store, nil
	}

	r.logger.Debug("connecting store", slog.String("store", ls.name), slog.String("type", ls.cfg.Type))

	st, err := r.newStore(ls.cfg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", ls.name, err)
	}
	if err := st.Connect(ctx, ls.cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", ls.name, err)
	}

	if s, ok := st.(seeder); ok {
		if err := s.SeedDemo(ctx); err != nil {
			r.logger.Warn("failed to seed demonstration table",
				slog.String("store", ls.name), slog.String("error", err.Error()))
		}
	}

	ls.current.Store(&storeBox{store: st})
	r.logger.Debug("store connected", slog.String("store", ls.name), slog.String("dialect", st.DialectName()))
	return st, nil
}

// route runs fn on the Primary store and, on any failure, once on the Embedded store.
// It returns the dialect of the store that produced the result.
func route[T any](ctx context.Context, r *Router, op string, fn func(core.Store) (T, error)) (T, string, error) {
	var zero T

	if r.primaryEnabled {
		st, err := r.get(ctx, r.primary)
		if err == nil {
			var v T
			if v, err = fn(st); err == nil {
				return v, st.DialectName(), nil
			}
		}
		r.logger.Warn("primary store failed, falling back to embedded store",
			slog.String("op", op), slog.String("error", err.Error()))
		r.metrics.BackendFallback(op)
	}

	st, err := r.get(ctx, r.embedded)
	if err != nil {
		return zero, "", core.E(core.KindBackendUnavailable, op, err)
	}
	v, err := fn(st)
	if err != nil {
		return zero, "", core.E(core.KindBackendUnavailable, op, err)
	}
	return v, st.DialectName(), nil
}

// Query runs a statement that returns rows.
func (r *Router) Query(ctx context.Context, query string, args ...any) ([]core.Row, error) {
	rows, _, err := route(ctx, r, "query", func(st core.Store) ([]core.Row, error) {
		return st.Query(ctx, query, args...)
	})
	return rows, err
}

// Schema returns the live catalog and the dialect of the store that served it.
func (r *Router) Schema(ctx context.Context) ([]core.SchemaColumn, string, error) {
	return route(ctx, r, "schema", func(st core.Store) ([]core.SchemaColumn, error) {
		return st.Schema(ctx)
	})
}

// TableColumns introspects one table.
func (r *Router) TableColumns(ctx context.Context, table string) ([]core.SchemaColumn, error) {
	cols, _, err := route(ctx, r, "table_columns", func(st core.Store) ([]core.SchemaColumn, error) {
		return st.TableColumns(ctx, table)
	})
	return cols, err
}

// Exec runs a DDL statement.
func (r *Router) Exec(ctx context.Context, stmt string) error {
	_, _, err := route(ctx, r, "exec", func(st core.Store) (struct{}, error) {
		return struct{}{}, st.Exec(ctx, stmt)
	})
	return err
}

// BatchInsert inserts rows inside one transaction.
func (r *Router) BatchInsert(ctx context.Context, table string, columns []string, rows [][]string) error {
	_, _, err := route(ctx, r, "batch_insert", func(st core.Store) (struct{}, error) {
		return struct{}{}, st.BatchInsert(ctx, table, columns, rows)
	})
	return err
}

// Embedded returns the Embedded store, bypassing the Primary store.
// Dataset tables live only there.
func (r *Router) Embedded(ctx context.Context) (core.Store, error) {
	st, err := r.get(ctx, r.embedded)
	if err != nil {
		return nil, core.E(core.KindBackendUnavailable, "embedded", err)
	}
	return st, nil
}

// PrimaryEnabled reports whether operations try the Primary store first.
func (r *Router) PrimaryEnabled() bool {
	return r.primaryEnabled
}

// Close closes every store that was opened.
func (r *Router) Close() error {
	var firstErr error
	for _, ls := range []*lazyStore{r.primary, r.embedded} {
		ls.mu.Lock()
		if box := ls.current.Swap(nil); box != nil {
			if err := box.store.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("failed to close %s store: %w", ls.name, err)
			}
		}
		ls.mu.Unlock()
	}
	return firstErr
}
