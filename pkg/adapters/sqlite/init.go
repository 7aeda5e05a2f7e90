// Package sqlite provides the file-based Embedded store for askql.
//
// The Embedded store is the fallback when the Primary store is unavailable
// and the sole home of ingested dataset tables.
//
//	import _ "github.com/leapstack-labs/askql/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/askql/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Store { return New(logger) })
}
