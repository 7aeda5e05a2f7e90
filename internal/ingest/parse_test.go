package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantHeaders []string
		wantRows    [][]string
	}{
		{
			name:        "simple",
			content:     "name,age\nAlice,30\nBob,25",
			wantHeaders: []string{"name", "age"},
			wantRows:    [][]string{{"Alice", "30"}, {"Bob", "25"}},
		},
		{
			name:        "crlf and blank lines",
			content:     "name,age\r\n\r\nAlice,30\r\n\r\n",
			wantHeaders: []string{"name", "age"},
			wantRows:    [][]string{{"Alice", "30"}},
		},
		{
			name:        "headers are trimmed",
			content:     " name , age \nAlice,30",
			wantHeaders: []string{"name", "age"},
			wantRows:    [][]string{{"Alice", "30"}},
		},
		{
			name:        "quoted field with comma",
			content:     "city,pop\n\"Portland, OR\",650000",
			wantHeaders: []string{"city", "pop"},
			wantRows:    [][]string{{"Portland, OR", "650000"}},
		},
		{
			name:        "short rows are padded",
			content:     "a,b,c\n1\n1,2",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    [][]string{{"1", "", ""}, {"1", "2", ""}},
		},
		{
			name:        "extra fields are ignored",
			content:     "a,b\n1,2,3,4",
			wantHeaders: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}},
		},
		{
			name:        "header only",
			content:     "a,b\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    [][]string{},
		},
		{
			name:        "whitespace-only line dropped",
			content:     "a\n   \nx",
			wantHeaders: []string{"a"},
			wantRows:    [][]string{{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeaders, got.Headers)
			assert.Equal(t, tt.wantRows, got.Rows)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, content := range []string{"", "\n\n", "\r\n"} {
		_, err := Parse(content)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestTable_Records(t *testing.T) {
	tbl := &Table{
		Headers: []string{"name", "age"},
		Rows:    [][]string{{"Alice", "30"}, {"Bob", "25"}, {"Cy", "41"}},
	}

	assert.Equal(t, []map[string]string{
		{"name": "Alice", "age": "30"},
		{"name": "Bob", "age": "25"},
	}, tbl.Records(2))
	assert.Len(t, tbl.Records(5), 3)
	assert.Empty(t, tbl.Records(0))
}
