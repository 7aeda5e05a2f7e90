package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
)

const schemaQuery = `
	SELECT table_name, column_name, data_type, is_nullable
	FROM information_schema.columns
	WHERE table_schema = 'public'
	ORDER BY table_name, ordinal_position`

const tableColumnsQuery = `
	SELECT table_name, column_name, data_type, is_nullable
	FROM information_schema.columns
	WHERE table_schema = $1 AND table_name = $2
	ORDER BY ordinal_position`

const tableExistsQuery = `
	SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`

const createSampleTable = `
	CREATE TABLE IF NOT EXISTS sample_data (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100),
		value INTEGER,
		category VARCHAR(50),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

// Store implements core.Store for PostgreSQL.
type Store struct {
	adapter.BaseSQLStore
}

// New creates a new PostgreSQL store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d, _ := dialect.Get(dialect.Postgres)
	return &Store{
		BaseSQLStore: adapter.BaseSQLStore{Logger: logger, Dialect: d},
	}
}

// Connect establishes a connection to PostgreSQL.
func (s *Store) Connect(ctx context.Context, cfg adapter.Config) error {
	if cfg.DSN == "" {
		return fmt.Errorf("postgres connection string not configured")
	}

	s.Logger.Debug("connecting to postgres")

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// Query runs query inside a read-only transaction and materializes every row.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]core.Row, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return adapter.ScanRows(rows)
}

// Schema lists every column of every table in the public schema.
func (s *Store) Schema(ctx context.Context) ([]core.SchemaColumn, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := s.DB.QueryContext(ctx, schemaQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return adapter.ScanSchema(rows)
}

// TableColumns lists the columns of one table, in ordinal order.
func (s *Store) TableColumns(ctx context.Context, table string) ([]core.SchemaColumn, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := s.DB.QueryContext(ctx, tableColumnsQuery, s.Dialect.DefaultSchema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return adapter.ScanSchema(rows)
}

// SeedDemo creates and fills the demonstration table unless it already exists.
func (s *Store) SeedDemo(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx, tableExistsQuery, adapter.SampleTable).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check for %s: %w", adapter.SampleTable, err)
	}
	if exists {
		return nil
	}

	s.Logger.Info("seeding demonstration table", slog.String("table", adapter.SampleTable))
	if _, err := s.DB.ExecContext(ctx, createSampleTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", adapter.SampleTable, err)
	}
	if _, err := s.DB.ExecContext(ctx, adapter.SampleInsert); err != nil {
		return fmt.Errorf("failed to seed %s: %w", adapter.SampleTable, err)
	}
	return nil
}

// Ensure Store implements core.Store interface
var _ core.Store = (*Store)(nil)
