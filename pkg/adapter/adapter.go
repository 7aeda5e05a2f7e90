// Package adapter provides the database/sql plumbing and factory registry
// shared by askql's backing stores.
//
// Concrete store implementations are in pkg/adapters/ subdirectories and
// register themselves in init().
package adapter

import (
	"github.com/leapstack-labs/askql/pkg/core"
)

// Type aliases so store implementations can depend on this package alone.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// Config is an alias for core.StoreConfig.
	Config = core.StoreConfig

	// Row is an alias for core.Row.
	Row = core.Row
)
