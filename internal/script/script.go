// Package script produces a standalone Python script that reproduces a
// dataset query against the embedded database file.
package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/internal/llm"
)

const systemPrompt = "You write short, runnable Python 3 scripts. Reply with the script only."

// Synthesizer builds scripts, with a model when one is configured and a
// fixed template otherwise.
type Synthesizer struct {
	provider llm.Provider
	dbPath   string
	logger   *slog.Logger
}

// New creates a Synthesizer for the database file at dbPath. provider may be nil.
func New(provider llm.Provider, dbPath string, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{provider: provider, dbPath: dbPath, logger: logger}
}

// Synthesize returns a script that runs sql against table. It never fails:
// a missing or failing model yields the template.
func (s *Synthesizer) Synthesize(ctx context.Context, table, sql string) string {
	if s.provider != nil {
		reply, err := s.provider.Complete(ctx, systemPrompt, s.prompt(table, sql))
		if err != nil {
			s.logger.Debug("script generation failed, using template", slog.String("error", err.Error()))
		} else if code := llm.StripCodeFences(reply); code != "" {
			return code
		}
	}
	return Template(s.dbPath, sql)
}

func (s *Synthesizer) prompt(table, sql string) string {
	return fmt.Sprintf("Write a Python script that connects to the SQLite database file %s with sqlite3, "+
		"runs the following query against the table %s using pandas.read_sql_query, and prints the first rows.\n\n%s",
		pyString(s.dbPath), table, sql)
}

// Template renders the deterministic fallback script.
func Template(dbPath, sql string) string {
	lines := []string{
		"# Auto-generated Python script",
		"import sqlite3",
		"import pandas as pd",
		"",
		"conn = sqlite3.connect(" + pyString(dbPath) + ")",
		`sql = """` + pyTripleQuoted(sql) + `"""`,
		"df = pd.read_sql_query(sql, conn)",
		"print(df.head(10))",
		"",
	}
	return strings.Join(lines, "\n")
}

// pyTripleQuoted escapes s for the body of a """...""" literal.
// Every double quote is escaped so none can merge with the closing delimiter.
func pyTripleQuoted(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// pyString quotes s as a single-quoted Python string literal.
func pyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
