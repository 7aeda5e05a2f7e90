package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"First Name", "First_Name"},
		{"price ($)", "price____"},
		{"émoji", "_moji"},
		{"", Placeholder},
		{"snake_case_1", "snake_case_1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeIdentifier(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsSafeIdentifier(got))
		})
	}
}

func TestSanitizeHeaders_Collisions(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    []string
	}{
		{"punctuation and blanks", []string{"a b", "a-b", "", "", "a_b_2"}, []string{"a_b", "a_b_2", "col", "col_2", "a_b_2_2"}},
		{"case only", []string{"ID", "id", "Id"}, []string{"ID", "id_2", "Id_3"}},
		{"case against suffix", []string{"Name", "name", "NAME_2"}, []string{"Name", "name_2", "NAME_2_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeHeaders(tt.headers))
		})
	}
}

func TestIsSafeIdentifier(t *testing.T) {
	assert.True(t, IsSafeIdentifier("csv_abc_12345"))
	assert.False(t, IsSafeIdentifier(""))
	assert.False(t, IsSafeIdentifier("x; DROP TABLE y"))
	assert.False(t, IsSafeIdentifier(`x"`))
}

func TestNewDatasetID(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	a := NewDatasetID(now)
	b := NewDatasetID(now)

	assert.Regexp(t, `^csv_[0-9a-z]+_[0-9a-z]{5}$`, a)
	assert.Contains(t, a, "csv_loyw3v28_")
	assert.True(t, IsSafeIdentifier(a))
	assert.NotEqual(t, a, b, "same-millisecond ids differ by suffix")
}
