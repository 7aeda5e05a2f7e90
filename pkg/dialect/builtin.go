package dialect

// Dialect tags.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

var builtinPostgres = &Dialect{
	Name:          Postgres,
	PromptName:    "PostgreSQL",
	DefaultSchema: "public",
	Placeholder:   PlaceholderDollar,
	Quote:         `"`,
	QuoteEnd:      `"`,
	Escape:        `""`,
	Hints: []string{
		"Use ILIKE for case-insensitive matching.",
		"Cast text columns explicitly (e.g. value::numeric) before arithmetic.",
	},
}

var builtinSQLite = &Dialect{
	Name:          SQLite,
	PromptName:    "SQLite",
	DefaultSchema: "main",
	Placeholder:   PlaceholderQuestion,
	Quote:         `"`,
	QuoteEnd:      `"`,
	Escape:        `""`,
	Hints: []string{
		"All dataset columns are stored as TEXT; use CAST(col AS REAL) or CAST(col AS INTEGER) for numeric comparisons and aggregates.",
		"Quote identifiers with double quotes.",
	},
}

func init() {
	Register(builtinPostgres, "postgresql", "pg")
	Register(builtinSQLite, "sqlite3")
}
