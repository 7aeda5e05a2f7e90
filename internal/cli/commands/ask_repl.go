package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt    = "askql> "
	replSQLPrompt = "askql[sql]> "
)

func runAskREPL(cmd *cobra.Command, app *App, opts *AskOptions) error {
	ctx := cmd.Context()

	// History lives next to the embedded store
	historyFile := filepath.Join(filepath.Dir(app.Cfg.Embedded.Path), ".askql_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptFor(opts),
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(ctx, app),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	styles := NewStyles(cmd.ErrOrStderr())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "askql interactive session (embedded store: %s)\n", app.Cfg.Embedded.Path)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type a question, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd, app, line, opts); quit {
				break
			}
			rl.SetPrompt(promptFor(opts))
			continue
		}

		if err := askOnce(cmd, app, line, opts); err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), styles.Error.Render("Error: "+err.Error()))
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func promptFor(opts *AskOptions) string {
	if opts.GenerateOnly {
		return replSQLPrompt
	}
	return replPrompt
}

// handleDotCommand runs one REPL command and reports whether the session should end.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, app *App, line string, opts *AskOptions) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out)

	case ".tables":
		resp, err := app.Service.Schema(ctx, "")
		if err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
			return false
		}
		if resp.Error != "" {
			_, _ = fmt.Fprintf(errOut, "Error: %s\n", resp.Error)
			return false
		}
		for _, name := range tableNames(resp.Schema) {
			_, _ = fmt.Fprintln(out, name)
		}

	case ".schema":
		table := ""
		if len(parts) > 1 {
			table = parts[1]
		}
		if err := showSchema(ctx, out, app, table, opts.Format); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}

	case ".datasets":
		if err := listDatasets(ctx, out, app, opts.Format); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		}

	case ".sql":
		opts.GenerateOnly = !opts.GenerateOnly
		if opts.GenerateOnly {
			_, _ = fmt.Fprintln(out, "Generate-only mode on: queries are shown, not run")
		} else {
			_, _ = fmt.Fprintln(out, "Generate-only mode off: queries are run")
		}

	case ".clear":
		_, _ = fmt.Fprint(out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List all tables
  .schema [table]  Show columns, optionally for one table
  .datasets        List uploaded CSV datasets
  .sql             Toggle generate-only mode
  .clear           Clear the screen
  .quit / .exit    Exit the session

Anything else is asked as a question.
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for dot-commands and table names.
func newTableCompleter(ctx context.Context, app *App) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	// Completion is best effort
	if resp, err := app.Service.Schema(ctx, ""); err == nil {
		for _, name := range tableNames(resp.Schema) {
			tables = append(tables, readline.PcItem(name))
		}
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".datasets"),
		readline.PcItem(".sql"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
