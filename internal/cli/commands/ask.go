package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/askql/internal/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	GenerateOnly bool
	Format       string
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the connected database",
		Long: `Translate a natural-language question into SQL, check that it is a single
read-only SELECT and run it against the connected database.

Without arguments, ask starts an interactive session when attached to a
terminal and otherwise answers one question per line of standard input.`,
		Example: `  # One-shot question
  askql ask "how many orders were placed last week?"

  # Show the SQL without running it
  askql ask --generate-only "top 5 customers by revenue"

  # Interactive session
  askql ask

  # Batch questions from a file
  askql ask --format json < questions.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.Format); err != nil {
				return err
			}
			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if len(args) > 0 {
				return askOnce(cmd, app, strings.Join(args, " "), opts)
			}
			if isTerminal(cmd.InOrStdin()) {
				return runAskREPL(cmd, app, opts)
			}
			return askLines(cmd, app, cmd.InOrStdin(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.GenerateOnly, "generate-only", false, "Generate SQL without executing it")
	addFormatFlag(cmd, &opts.Format)

	return cmd
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// askOnce answers a single question. A recoverable failure is rendered and
// then returned so the process exits non-zero.
func askOnce(cmd *cobra.Command, app *App, question string, opts *AskOptions) error {
	resp, err := app.Service.Ask(cmd.Context(), pipeline.AskRequest{
		Question:     question,
		GenerateOnly: opts.GenerateOnly,
	})
	if err != nil {
		return err
	}
	if err := renderAnswer(cmd.OutOrStdout(), resp, opts.Format); err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}

// askLines answers every non-blank line of r, reporting failures as it goes.
func askLines(cmd *cobra.Command, app *App, r io.Reader, opts *AskOptions) error {
	scanner := bufio.NewScanner(r)
	var total, failed int
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		total++
		if err := askOnce(cmd, app, question, opts); err != nil {
			failed++
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), NewStyles(cmd.ErrOrStderr()).Error.Render("Error: "+err.Error()))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read questions: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d questions failed", failed, total)
	}
	return nil
}

func renderAnswer(w io.Writer, resp *pipeline.AskResponse, format string) error {
	if done, err := renderStructured(w, format, resp); done {
		return err
	}

	styles := NewStyles(w)
	if resp.SQL != "" {
		_, _ = fmt.Fprintf(w, "%s\n%s\n\n", styles.Heading.Render("SQL:"), indent(resp.SQL, "  "))
	}
	if resp.Explanation != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", styles.Muted.Render(resp.Explanation))
	}
	if resp.Executed {
		renderRows(w, resp.Result)
	}
	return nil
}
