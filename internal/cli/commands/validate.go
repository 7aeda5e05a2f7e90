package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/askql/internal/safety"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate <sql|->",
		Short: "Check whether SQL would be allowed to run",
		Long: `Run the safety check applied to every generated query. Only a single
read-only SELECT statement passes. Nothing is executed.

Use "-" to read the SQL from standard input.`,
		Example: `  askql validate "SELECT * FROM orders"
  askql validate - < report.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			sql := strings.Join(args, " ")
			if sql == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read standard input: %w", err)
				}
				sql = string(data)
			}

			verdict := safety.Validate(sql)
			w := cmd.OutOrStdout()
			if done, err := renderStructured(w, format, verdict); done {
				if err != nil {
					return err
				}
			} else if verdict.Valid {
				_, _ = fmt.Fprintln(w, NewStyles(w).Success.Render("OK: query is a single read-only SELECT"))
			}
			if !verdict.Valid {
				return errors.New(verdict.Error)
			}
			return nil
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}
