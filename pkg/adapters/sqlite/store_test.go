package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s := New(nil)
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, s.Connect(context.Background(), adapter.Config{Path: path}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSelfRegistration(t *testing.T) {
	assert.True(t, adapter.IsRegistered("sqlite"))
}

func TestConnect_MemoryAndMigrations(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Connect(context.Background(), adapter.Config{Path: ":memory:"}))
	defer func() { _ = s.Close() }()

	version, err := s.MigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, ":memory:", s.Path())
	assert.Equal(t, "sqlite", s.DialectName())
}

func TestConnect_ConcurrentStoresMigrateIndependently(t *testing.T) {
	dir := t.TempDir()
	const n = 4

	stores := make([]*Store, n)
	var g errgroup.Group
	for i := range n {
		stores[i] = New(nil)
		g.Go(func() error {
			return stores[i].Connect(context.Background(), adapter.Config{Path: filepath.Join(dir, fmt.Sprintf("s%d.db", i))})
		})
	}
	require.NoError(t, g.Wait())

	for _, s := range stores {
		version, err := s.MigrationVersion(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)
		_ = s.Close()
	}
}

func TestStore_SeedDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.SeedDemo(ctx))
	require.NoError(t, s.SeedDemo(ctx))

	rows, err := s.Query(ctx, "SELECT COUNT(*) AS n FROM sample_data")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, adapter.SampleRowCount, rows[0]["n"])
}

func TestStore_SchemaHidesBookkeepingTables(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.SeedDemo(ctx))

	cols, err := s.Schema(ctx)
	require.NoError(t, err)

	tables := map[string]bool{}
	for _, c := range cols {
		tables[c.TableName] = true
	}
	assert.True(t, tables["sample_data"])
	assert.False(t, tables["askql_datasets"])
	assert.False(t, tables["goose_db_version"])

	assert.Equal(t, core.SchemaColumn{
		TableName: "sample_data", ColumnName: "id", DataType: "INTEGER", IsNullable: "YES",
	}, cols[0])
}

func TestStore_TableColumns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Exec(ctx, `CREATE TABLE "csv_x" ("name" TEXT, "age" TEXT NOT NULL)`))

	cols, err := s.TableColumns(ctx, "csv_x")
	require.NoError(t, err)
	assert.Equal(t, []core.SchemaColumn{
		{TableName: "csv_x", ColumnName: "name", DataType: "TEXT", IsNullable: "YES"},
		{TableName: "csv_x", ColumnName: "age", DataType: "TEXT", IsNullable: "NO"},
	}, cols)

	missing, err := s.TableColumns(ctx, "does_not_exist")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestStore_BatchInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Exec(ctx, `CREATE TABLE "people" ("name" TEXT, "age" TEXT)`))

	require.NoError(t, s.BatchInsert(ctx, "people", []string{"name", "age"}, [][]string{
		{"Alice", "30"},
		{"Bob", ""},
	}))

	rows, err := s.Query(ctx, "SELECT name, age FROM people ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []core.Row{
		{"name": "Alice", "age": "30"},
		{"name": "Bob", "age": ""},
	}, rows)
}

func TestStore_DatasetRegistry(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	empty, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	older := core.DatasetRecord{
		ID: "csv_a_00001", Filename: "a.csv", RowCount: 2, ColumnCount: 2,
		Columns: []string{"name", "age"}, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := core.DatasetRecord{
		ID: "csv_b_00002", Filename: "b.csv", RowCount: 1, ColumnCount: 1,
		Columns: []string{"x"}, CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.RecordDataset(ctx, older))
	require.NoError(t, s.RecordDataset(ctx, newer))

	got, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer, got[0])
	assert.Equal(t, older, got[1])

	assert.Error(t, s.RecordDataset(ctx, older), "duplicate ids are rejected")
}
