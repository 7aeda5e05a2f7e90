package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/internal/testutil"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shopSchema = []core.SchemaColumn{
	{TableName: "users", ColumnName: "id", DataType: "integer", IsNullable: "NO"},
	{TableName: "users", ColumnName: "name", DataType: "text", IsNullable: "YES"},
	{TableName: "orders", ColumnName: "id", DataType: "integer", IsNullable: "NO"},
	{TableName: "orders", ColumnName: "user_id", DataType: "integer", IsNullable: "YES"},
	{TableName: "users", ColumnName: "email", DataType: "text", IsNullable: "YES"},
	{TableName: "orders", ColumnName: "amount", DataType: "numeric", IsNullable: "YES"},
}

type fakeProvider struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeProvider) Complete(_ context.Context, system, user string) (string, error) {
	f.lastSystem, f.lastUser = system, user
	return f.reply, f.err
}
func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func TestBuildPrompt_Golden(t *testing.T) {
	tests := []struct {
		name     string
		question string
		schema   []core.SchemaColumn
		dialect  string
	}{
		{"postgres_shop", "  Show me all users who have orders with amount greater than 100 ", shopSchema, dialect.Postgres},
		{"sqlite_dataset", "What is the average age?", []core.SchemaColumn{
			{TableName: "csv_loyw3v28_ab12c", ColumnName: "name", DataType: "TEXT", IsNullable: "YES"},
			{TableName: "csv_loyw3v28_ab12c", ColumnName: "age", DataType: "TEXT", IsNullable: "YES"},
		}, dialect.SQLite},
		{"empty_schema", "How many rows?", nil, dialect.SQLite},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := dialect.Get(tt.dialect)
			require.True(t, ok)
			system, user := BuildPrompt(tt.question, tt.schema, d)
			g.Assert(t, tt.name, []byte("SYSTEM:\n"+system+"\nUSER:\n"+user))
		})
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name            string
		reply           string
		err             error
		dialect         string
		wantSQL         string
		wantExplanation string
		wantErr         string
	}{
		{
			name:            "json reply",
			reply:           `{"sql": "SELECT name FROM users", "explanation": "Lists user names."}`,
			dialect:         dialect.Postgres,
			wantSQL:         "SELECT name FROM users",
			wantExplanation: "Lists user names.",
		},
		{
			name:    "dialect alias",
			reply:   "SELECT 1",
			dialect: "postgresql",
			wantSQL: "SELECT 1",
		},
		{
			name:    "model failure",
			err:     errors.New("connection refused"),
			dialect: dialect.Postgres,
			wantErr: "connection refused",
		},
		{
			name:            "no sql in reply",
			reply:           `{"sql": "", "explanation": "There is no salary column."}`,
			dialect:         dialect.SQLite,
			wantExplanation: "There is no salary column.",
			wantErr:         "no SELECT statement",
		},
		{
			name:    "unknown dialect",
			reply:   "SELECT 1",
			dialect: "oracle",
			wantErr: `unsupported SQL dialect "oracle"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{reply: tt.reply, err: tt.err}
			g := New(p, testutil.NewTestLogger(t))

			res := g.Generate(context.Background(), "question", shopSchema, tt.dialect)
			assert.Equal(t, tt.wantSQL, res.SQL)
			assert.Equal(t, tt.wantExplanation, res.Explanation)
			if tt.wantErr == "" {
				assert.Empty(t, res.Error)
				assert.False(t, res.Failed())
			} else {
				assert.Contains(t, res.Error, tt.wantErr)
				assert.True(t, res.Failed())
			}
		})
	}
}

func TestGenerate_TargetsDialect(t *testing.T) {
	p := &fakeProvider{reply: "SELECT 1"}
	g := New(p, nil)

	g.Generate(context.Background(), "q", nil, dialect.SQLite)
	assert.Contains(t, p.lastSystem, "read-only SQLite query")

	g.Generate(context.Background(), "q", nil, dialect.Postgres)
	assert.Contains(t, p.lastSystem, "read-only PostgreSQL query")
}

func TestGenerate_NotConfigured(t *testing.T) {
	g := New(nil, nil)
	assert.False(t, g.Configured())

	res := g.Generate(context.Background(), "q", shopSchema, dialect.Postgres)
	assert.True(t, res.Failed())
	assert.Equal(t, llm.ErrNotConfigured.Error(), res.Error)
}

func TestExplain(t *testing.T) {
	t.Run("strips fences", func(t *testing.T) {
		p := &fakeProvider{reply: "```\nCounts the users.\n```"}
		g := New(p, nil)
		assert.Equal(t, "Counts the users.", g.Explain(context.Background(), "SELECT COUNT(*) FROM users"))
		assert.Equal(t, "SELECT COUNT(*) FROM users", p.lastUser)
	})

	t.Run("failure yields empty", func(t *testing.T) {
		g := New(&fakeProvider{err: errors.New("boom")}, nil)
		assert.Empty(t, g.Explain(context.Background(), "SELECT 1"))
	})

	t.Run("not configured", func(t *testing.T) {
		assert.Empty(t, New(nil, nil).Explain(context.Background(), "SELECT 1"))
	})

	t.Run("empty sql skips the model", func(t *testing.T) {
		p := &fakeProvider{reply: "x"}
		assert.Empty(t, New(p, nil).Explain(context.Background(), "  "))
		assert.Empty(t, p.lastUser)
	})
}
