package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// DefaultPath is the Embedded store file used when none is configured.
const DefaultPath = "ai_copilot.db"

const listTablesQuery = `
	SELECT name FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name`

const createSampleTable = `
	CREATE TABLE IF NOT EXISTS sample_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		value INTEGER,
		category TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

// Store implements core.Store for SQLite.
type Store struct {
	adapter.BaseSQLStore
}

// New creates a new SQLite store instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d, _ := dialect.Get(dialect.SQLite)
	return &Store{
		BaseSQLStore: adapter.BaseSQLStore{Logger: logger, Dialect: d},
	}
}

// Connect opens the store file (or ":memory:") and applies registry migrations.
func (s *Store) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	s.Logger.Debug("opening sqlite store", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.DB = db
	s.Cfg = cfg
	s.Cfg.Path = path
	return nil
}

// Schema lists every column of every user table, skipping bookkeeping tables.
func (s *Store) Schema(ctx context.Context) ([]core.SchemaColumn, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	tables, err := s.listTables(ctx)
	if err != nil {
		return nil, err
	}

	var cols []core.SchemaColumn
	for _, t := range tables {
		tc, err := s.TableColumns(ctx, t)
		if err != nil {
			return nil, err
		}
		cols = append(cols, tc...)
	}
	return cols, nil
}

func (s *Store) listTables(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if hiddenTables[name] {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// TableColumns introspects one table with PRAGMA table_info.
// A table that does not exist yields an empty slice.
func (s *Store) TableColumns(ctx context.Context, table string) ([]core.SchemaColumn, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // the identifier is quoted by the dialect
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.Dialect.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []core.SchemaColumn
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		nullable := "YES"
		if notNull != 0 {
			nullable = "NO"
		}
		cols = append(cols, core.SchemaColumn{
			TableName:  table,
			ColumnName: name,
			DataType:   strings.ToUpper(typ),
			IsNullable: nullable,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return cols, nil
}

// SeedDemo creates the demonstration table and fills it when empty.
func (s *Store) SeedDemo(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := s.DB.ExecContext(ctx, createSampleTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", adapter.SampleTable, err)
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM sample_data").Scan(&count); err != nil {
		return fmt.Errorf("failed to count %s: %w", adapter.SampleTable, err)
	}
	if count > 0 {
		return nil
	}

	s.Logger.Info("seeding demonstration table", slog.String("table", adapter.SampleTable))
	if _, err := s.DB.ExecContext(ctx, adapter.SampleInsert); err != nil {
		return fmt.Errorf("failed to seed %s: %w", adapter.SampleTable, err)
	}
	return nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.Cfg.Path
}

// Ensure Store implements core.Store interface
var _ core.Store = (*Store)(nil)
