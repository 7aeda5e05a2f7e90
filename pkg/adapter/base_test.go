package adapter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/askql/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockBase(t *testing.T) (*BaseSQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d, ok := dialect.Get(dialect.Postgres)
	require.True(t, ok)
	return &BaseSQLStore{DB: db, Dialect: d}, mock
}

func TestBaseSQLStore_Close(t *testing.T) {
	tests := []struct {
		name    string
		setupDB bool
	}{
		{name: "close with nil DB", setupDB: false},
		{name: "close with open DB", setupDB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLStore{}

			if tt.setupDB {
				db, mock, err := sqlmock.New()
				require.NoError(t, err)
				mock.ExpectClose()
				base.DB = db
			}

			assert.NoError(t, base.Close())
		})
	}
}

func TestBaseSQLStore_Exec(t *testing.T) {
	tests := []struct {
		name      string
		setupDB   bool
		setupMock func(mock sqlmock.Sqlmock)
		sql       string
		errMsg    string
	}{
		{
			name:    "exec without connection",
			setupDB: false,
			sql:     "CREATE TABLE t (a TEXT)",
			errMsg:  "database connection not established",
		},
		{
			name:    "exec success",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE users").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			sql: "CREATE TABLE users (id INT)",
		},
		{
			name:    "exec with error",
			setupDB: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INVALID SQL").WillReturnError(assert.AnError)
			},
			sql:    "INVALID SQL",
			errMsg: "failed to execute SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := &BaseSQLStore{}
			if tt.setupDB {
				var mock sqlmock.Sqlmock
				base, mock = newMockBase(t)
				tt.setupMock(mock)
			}

			err := base.Exec(context.Background(), tt.sql)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBaseSQLStore_Query(t *testing.T) {
	t.Run("query without connection", func(t *testing.T) {
		base := &BaseSQLStore{}
		rows, err := base.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
		assert.Nil(t, rows)
		assert.Contains(t, err.Error(), "database connection not established")
	})

	t.Run("query materializes rows", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("SELECT id, name FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(int64(1), []byte("alice")).
				AddRow(int64(2), "bob"))

		rows, err := base.Query(context.Background(), "SELECT id, name FROM users")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, Row{"id": int64(1), "name": "alice"}, rows[0])
		assert.Equal(t, "bob", rows[1]["name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is not nil", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		rows, err := base.Query(context.Background(), "SELECT id FROM users WHERE false")
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("query with error", func(t *testing.T) {
		base, mock := newMockBase(t)
		mock.ExpectQuery("INVALID").WillReturnError(assert.AnError)

		rows, err := base.Query(context.Background(), "INVALID SQL")
		require.Error(t, err)
		assert.Nil(t, rows)
		assert.Contains(t, err.Error(), "failed to execute query")
	})
}

func TestBaseSQLStore_InsertStatement(t *testing.T) {
	base, _ := newMockBase(t)

	got := base.InsertStatement("csv_abc", []string{"name", "age"})
	assert.Equal(t, `INSERT INTO "csv_abc" ("name", "age") VALUES ($1, $2)`, got)
}

func TestBaseSQLStore_BatchInsert(t *testing.T) {
	insert := regexp.QuoteMeta(`INSERT INTO "people" ("name", "age") VALUES ($1, $2)`)

	tests := []struct {
		name      string
		rows      [][]string
		setupMock func(mock sqlmock.Sqlmock)
		errMsg    string
	}{
		{
			name: "commits all rows",
			rows: [][]string{{"Alice", "30"}, {"Bob", "25"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(insert)
				prep.ExpectExec().WithArgs("Alice", "30").WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WithArgs("Bob", "25").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "rolls back on insert failure",
			rows: [][]string{{"Alice", "30"}, {"Bob", "25"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				prep := mock.ExpectPrepare(insert)
				prep.ExpectExec().WithArgs("Alice", "30").WillReturnResult(sqlmock.NewResult(0, 1))
				prep.ExpectExec().WithArgs("Bob", "25").WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			errMsg: "failed to insert row 1",
		},
		{
			name: "rejects misaligned row",
			rows: [][]string{{"Alice"}},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectPrepare(insert)
				mock.ExpectRollback()
			},
			errMsg: "row 0 has 1 values, want 2",
		},
		{
			name:      "no rows is a no-op",
			rows:      nil,
			setupMock: func(_ sqlmock.Sqlmock) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockBase(t)
			tt.setupMock(mock)

			err := base.BatchInsert(context.Background(), "people", []string{"name", "age"}, tt.rows)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLStore_IsConnected(t *testing.T) {
	base := &BaseSQLStore{}
	assert.False(t, base.IsConnected())

	base, _ = newMockBase(t)
	assert.True(t, base.IsConnected())
	assert.Equal(t, dialect.Postgres, base.DialectName())
}
