package core

import (
	"context"
	"time"
)

// Store defines the capability surface shared by the Primary and Embedded stores.
type Store interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg StoreConfig) error

	// Close closes the database connection.
	Close() error

	// DialectName returns the dialect tag of the store ("postgres", "sqlite").
	DialectName() string

	// Query runs a statement that returns rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Exec runs a statement that doesn't return rows (DDL).
	Exec(ctx context.Context, stmt string) error

	// Schema lists every user-visible column of every table.
	Schema(ctx context.Context) ([]SchemaColumn, error)

	// TableColumns introspects a single table with the store's native facility.
	TableColumns(ctx context.Context, table string) ([]SchemaColumn, error)

	// BatchInsert inserts rows inside a single transaction.
	// Every row must be positionally aligned with columns.
	BatchInsert(ctx context.Context, table string, columns []string, rows [][]string) error
}

// StoreConfig holds configuration for connecting to a store.
type StoreConfig struct {
	Type    string
	DSN     string
	Path    string
	Options map[string]string
}

// SchemaColumn is one (table, column, type, nullability) tuple of the live catalog.
type SchemaColumn struct {
	TableName  string `json:"table_name" yaml:"table_name"`
	ColumnName string `json:"column_name" yaml:"column_name"`
	DataType   string `json:"data_type" yaml:"data_type"`
	IsNullable string `json:"is_nullable" yaml:"is_nullable"`
}

// Row is a single result row keyed by column name.
type Row map[string]any

// CountTables returns the number of distinct tables in a schema slice.
func CountTables(cols []SchemaColumn) int {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		seen[c.TableName] = struct{}{}
	}
	return len(seen)
}

// DatasetRecord describes one ingested dataset table.
type DatasetRecord struct {
	ID          string    `json:"datasetId" yaml:"dataset_id"`
	Filename    string    `json:"filename" yaml:"filename"`
	RowCount    int       `json:"rowCount" yaml:"row_count"`
	ColumnCount int       `json:"columnCount" yaml:"column_count"`
	Columns     []string  `json:"columns" yaml:"columns"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
}

// DatasetRegistry is implemented by stores that keep a ledger of ingested datasets.
type DatasetRegistry interface {
	RecordDataset(ctx context.Context, rec DatasetRecord) error
	ListDatasets(ctx context.Context) ([]DatasetRecord, error)
}
