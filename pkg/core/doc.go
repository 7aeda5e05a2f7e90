// Package core defines the shared language of the askql system.
//
// This package contains:
//   - Domain entities (SchemaColumn, Row)
//   - Service interfaces (Store)
//   - The error taxonomy shared by every pipeline stage (Error, Kind)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
