package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/askql/pkg/adapter"
	"github.com/leapstack-labs/askql/pkg/adapters/sqlite"
)

// OpenEmbeddedStore connects a SQLite store backed by a file in t.TempDir().
// The store is closed when the test finishes.
func OpenEmbeddedStore(t testing.TB) *sqlite.Store {
	t.Helper()
	s := sqlite.New(NewTestLogger(t))
	path := filepath.Join(t.TempDir(), "askql_test.db")
	if err := s.Connect(context.Background(), adapter.Config{Type: "sqlite", Path: path}); err != nil {
		t.Fatalf("failed to open embedded store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
