// Package dialect describes the SQL flavors targeted by the generator and spoken by the stores.
package dialect

import (
	"strconv"
	"strings"
)

// PlaceholderStyle is how a dialect formats query parameters.
type PlaceholderStyle int

// Placeholder styles.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2
)

// Dialect is the static description of one SQL flavor.
type Dialect struct {
	// Name is the dialect tag ("postgres", "sqlite").
	Name string
	// PromptName is how the dialect is named when talking to a language model.
	PromptName string
	// DefaultSchema is the schema user tables live in ("public" for Postgres, "main" for SQLite).
	DefaultSchema string
	Placeholder   PlaceholderStyle
	Quote         string
	QuoteEnd      string
	Escape        string
	// Hints are dialect-specific reminders embedded in generation prompts.
	Hints []string
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, d.QuoteEnd, d.Escape)
	return d.Quote + escaped + d.QuoteEnd
}

// Placeholders returns n comma-separated placeholders starting at index start.
func (d *Dialect) Placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.FormatPlaceholder(start + i)
	}
	return strings.Join(parts, ", ")
}
