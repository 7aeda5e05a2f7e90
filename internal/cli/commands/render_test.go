package commands

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowColumns(t *testing.T) {
	rows := []core.Row{
		{"b": 1, "a": 2},
		{"c": nil, "a": 3},
	}
	assert.Equal(t, []string{"a", "b", "c"}, rowColumns(rows))
	assert.Empty(t, rowColumns(nil))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "NULL"},
		{in: []byte("raw"), want: "raw"},
		{in: int64(42), want: "42"},
		{in: 2.5, want: "2.5"},
		{in: "text", want: "text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestRenderRows(t *testing.T) {
	var buf bytes.Buffer
	renderRows(&buf, nil)
	assert.Equal(t, "(0 rows)\n", buf.String())

	buf.Reset()
	renderRows(&buf, []core.Row{{"name": "Ann", "age": int64(30)}, {"name": "Bob", "age": nil}})
	out := buf.String()
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderStructured(t *testing.T) {
	v := map[string]any{"count": 2}

	tests := []struct {
		format   string
		wantDone bool
		want     string
	}{
		{format: FormatJSON, wantDone: true, want: "{\n  \"count\": 2\n}\n"},
		{format: FormatYAML, wantDone: true, want: "count: 2\n"},
		{format: FormatTable, wantDone: false, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			done, err := renderStructured(&buf, tt.format, v)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDone, done)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{FormatTable, FormatJSON, FormatYAML} {
		assert.NoError(t, checkFormat(f))
	}
	assert.ErrorContains(t, checkFormat("csv"), "unknown format")
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  SELECT 1\n  FROM t", indent("SELECT 1\nFROM t\n", "  "))
}

func TestStylesPlainWhenNotTerminal(t *testing.T) {
	styles := NewStyles(new(bytes.Buffer))
	assert.Equal(t, "SQL:", styles.Heading.Render("SQL:"))
	assert.Equal(t, "Error: boom", styles.Error.Render("Error: boom"))
}
