// Package catalog reads the live (table, column, type, nullability) catalog.
// Nothing is cached: every call introspects the stores again.
package catalog

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/askql/pkg/core"
)

// Source is the part of the backend router the catalog needs.
type Source interface {
	Schema(ctx context.Context) ([]core.SchemaColumn, string, error)
	Embedded(ctx context.Context) (core.Store, error)
}

// Snapshot is one catalog read and the dialect of the store that served it.
type Snapshot struct {
	Columns []core.SchemaColumn
	Dialect string
}

// TableCount returns the number of distinct tables in the snapshot.
func (s Snapshot) TableCount() int {
	return core.CountTables(s.Columns)
}

// Catalog reads schema through the backend router.
type Catalog struct {
	source Source
}

// New creates a Catalog.
func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// Columns returns the live catalog, optionally filtered to one table.
func (c *Catalog) Columns(ctx context.Context, filterTable string) (Snapshot, error) {
	cols, d, err := c.source.Schema(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if filterTable == "" {
		return Snapshot{Columns: cols, Dialect: d}, nil
	}

	filtered := make([]core.SchemaColumn, 0)
	for _, col := range cols {
		if col.TableName == filterTable {
			filtered = append(filtered, col)
		}
	}
	return Snapshot{Columns: filtered, Dialect: d}, nil
}

// TableColumns introspects one table in the Embedded store with its native facility.
func (c *Catalog) TableColumns(ctx context.Context, table string) ([]core.SchemaColumn, error) {
	st, err := c.source.Embedded(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := st.TableColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	for i := range cols {
		if cols[i].DataType == "" {
			cols[i].DataType = "TEXT"
		}
	}
	return cols, nil
}

// DatasetColumns resolves the columns of a dataset table. The catalog query is
// tried first; a table it does not list yet is introspected natively.
// An empty result means the dataset does not exist.
func (c *Catalog) DatasetColumns(ctx context.Context, table string) ([]core.SchemaColumn, error) {
	snap, err := c.Columns(ctx, table)
	if err == nil && len(snap.Columns) > 0 {
		return snap.Columns, nil
	}
	return c.TableColumns(ctx, table)
}
