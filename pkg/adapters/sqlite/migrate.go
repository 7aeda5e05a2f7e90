package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// hiddenTables are bookkeeping tables never reported through the schema catalog.
var hiddenTables = map[string]bool{
	"askql_datasets":   true,
	"goose_db_version": true,
}

// newMigrator builds a goose provider bound to db.
func newMigrator(db *sql.DB) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}

// migrate runs all pending registry migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	p, err := newMigrator(db)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the current registry migration version.
func (s *Store) MigrationVersion(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	p, err := newMigrator(s.DB)
	if err != nil {
		return 0, err
	}
	return p.GetDBVersion(ctx)
}
