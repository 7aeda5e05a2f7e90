package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with op",
			err:  E(KindExecution, "query", errors.New("no such column: foo")),
			want: "query: no such column: foo",
		},
		{
			name: "without op",
			err:  Errorf(KindInput, "question is required"),
			want: "question is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestE_NilPassesThrough(t *testing.T) {
	assert.NoError(t, E(KindModel, "generate", nil))
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain error", base, KindUnknown},
		{"classified", E(KindSafety, "validate", base), KindSafety},
		{"wrapped classified", fmt.Errorf("failed to ask: %w", E(KindModel, "generate", base)), KindModel},
		{"outermost wins", E(KindBackendUnavailable, "query", E(KindExecution, "primary", base)), KindBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := E(KindIngest, "bulk load", errors.New("disk full"))

	assert.True(t, IsKind(err, KindIngest))
	assert.False(t, IsKind(err, KindInput))
	assert.False(t, IsKind(nil, KindUnknown))
	assert.ErrorContains(t, err, "disk full")
}

func TestCountTables(t *testing.T) {
	cols := []SchemaColumn{
		{TableName: "a", ColumnName: "x"},
		{TableName: "a", ColumnName: "y"},
		{TableName: "b", ColumnName: "x"},
	}
	assert.Equal(t, 2, CountTables(cols))
	assert.Equal(t, 0, CountTables(nil))
}
