// Package generator turns natural-language questions into SQL with a language model.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/internal/llm"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
)

// Result is the outcome of one generation. SQL is empty when generation
// failed, in which case Error says why.
type Result struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	Error       string `json:"error,omitempty"`
}

// Failed reports whether the result carries no usable SQL.
func (r Result) Failed() bool {
	return r.SQL == ""
}

// Generator asks a provider for SQL and explanations.
type Generator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a Generator. provider may be nil, in which case every
// generation fails with llm.ErrNotConfigured.
func New(provider llm.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{provider: provider, logger: logger}
}

// Configured reports whether a model provider is available.
func (g *Generator) Configured() bool {
	return g.provider != nil
}

// Generate produces a SQL statement answering question over schema in the
// given dialect. Failures are reported in Result.Error, never returned.
func (g *Generator) Generate(ctx context.Context, question string, schema []core.SchemaColumn, dialectName string) Result {
	if g.provider == nil {
		return Result{Error: llm.ErrNotConfigured.Error()}
	}
	d, ok := dialect.Get(dialectName)
	if !ok {
		return Result{Error: fmt.Sprintf("unsupported SQL dialect %q", dialectName)}
	}

	system, user := BuildPrompt(question, schema, d)
	reply, err := g.provider.Complete(ctx, system, user)
	if err != nil {
		err = core.E(core.KindModel, "generate", err)
		g.logger.Warn("sql generation failed", slog.String("error", err.Error()))
		return Result{Error: fmt.Sprintf("Failed to generate SQL: %v", err)}
	}

	sql, explanation := llm.ParseSQLReply(reply)
	if sql == "" {
		g.logger.Debug("model reply had no sql", slog.Int("chars", len(reply)))
		return Result{
			Explanation: explanation,
			Error:       "Failed to generate SQL: the model reply contained no SELECT statement",
		}
	}
	return Result{SQL: sql, Explanation: explanation}
}

// Explain asks the model for a short plain-language description of sql.
// It returns "" when no provider is configured or the call fails.
func (g *Generator) Explain(ctx context.Context, sql string) string {
	if g.provider == nil || strings.TrimSpace(sql) == "" {
		return ""
	}
	reply, err := g.provider.Complete(ctx, explainSystemPrompt, sql)
	if err != nil {
		g.logger.Warn("sql explanation failed", slog.String("error", err.Error()))
		return ""
	}
	return llm.StripCodeFences(reply)
}
