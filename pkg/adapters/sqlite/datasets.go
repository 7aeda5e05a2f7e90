package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leapstack-labs/askql/pkg/core"
)

// RecordDataset adds an ingested dataset to the registry.
func (s *Store) RecordDataset(ctx context.Context, rec core.DatasetRecord) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	cols, err := json.Marshal(rec.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO askql_datasets (id, filename, row_count, column_count, columns, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.RowCount, rec.ColumnCount, string(cols), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record dataset %s: %w", rec.ID, err)
	}
	return nil
}

// ListDatasets returns every registered dataset, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]core.DatasetRecord, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, filename, row_count, column_count, columns, created_at FROM askql_datasets ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]core.DatasetRecord, 0)
	for rows.Next() {
		var (
			rec       core.DatasetRecord
			cols      string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.RowCount, &rec.ColumnCount, &cols, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &rec.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns of %s: %w", rec.ID, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at of %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}
	return records, nil
}

var _ core.DatasetRegistry = (*Store)(nil)
