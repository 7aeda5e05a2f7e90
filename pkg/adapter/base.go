package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
)

// BaseSQLStore provides common database/sql functionality for stores.
// Embed this struct in concrete store implementations to get standard
// Close, Exec, Query, and BatchInsert implementations.
type BaseSQLStore struct {
	DB      *sql.DB
	Cfg     Config
	Logger  *slog.Logger
	Dialect *dialect.Dialect
}

// Close closes the database connection.
func (b *BaseSQLStore) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

func (b *BaseSQLStore) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// DialectName returns the dialect tag of the store.
func (b *BaseSQLStore) DialectName() string {
	if b.Dialect == nil {
		return ""
	}
	return b.Dialect.Name
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLStore) IsConnected() bool {
	return b.DB != nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLStore) Exec(ctx context.Context, stmt string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement and materializes every row.
func (b *BaseSQLStore) Query(ctx context.Context, query string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return ScanRows(rows)
}

// BatchInsert inserts rows inside a single transaction.
// On any failure the whole batch is rolled back.
func (b *BaseSQLStore) BatchInsert(ctx context.Context, table string, columns []string, rows [][]string) (err error) {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		return fmt.Errorf("no columns given for table %s", table)
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				b.logger().Warn("rollback failed", slog.String("table", table), slog.String("error", rbErr.Error()))
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, b.InsertStatement(table, columns))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		for j, v := range row {
			args[j] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InsertStatement builds a parameterized INSERT for table and columns.
// Identifiers are quoted with the store's dialect.
func (b *BaseSQLStore) InsertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = b.Dialect.QuoteIdentifier(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.Dialect.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		b.Dialect.Placeholders(1, len(columns)))
}

// ScanRows reads every row into a column-name keyed map.
// []byte values are converted to strings so rows encode cleanly as JSON.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := make([]core.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// ScanSchema reads (table_name, column_name, data_type, is_nullable) rows.
func ScanSchema(rows *sql.Rows) ([]core.SchemaColumn, error) {
	var cols []core.SchemaColumn
	for rows.Next() {
		var c core.SchemaColumn
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.DataType, &c.IsNullable); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return cols, nil
}
