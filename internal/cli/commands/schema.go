package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var table, format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the live database schema",
		Long: `Show every user-visible column of the connected database. The primary
store is asked first; the embedded store answers when it is unavailable.`,
		Example: `  askql schema
  askql schema --table customers
  askql schema --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			return showSchema(cmd.Context(), cmd.OutOrStdout(), app, table, format)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Only show columns of this table")
	addFormatFlag(cmd, &format)

	return cmd
}

func showSchema(ctx context.Context, w io.Writer, app *App, table, format string) error {
	resp, err := app.Service.Schema(ctx, table)
	if err != nil {
		return err
	}
	if done, err := renderStructured(w, format, resp); done {
		if err != nil {
			return err
		}
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		return nil
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}

	renderSchema(w, resp.Schema)
	_, _ = fmt.Fprintf(w, "%d tables, %d columns (%s)\n", resp.TableCount, resp.ColumnCount, resp.Dialect)
	return nil
}

// tableNames returns distinct table names in catalog order.
func tableNames(cols []core.SchemaColumn) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, c := range cols {
		if _, ok := seen[c.TableName]; ok {
			continue
		}
		seen[c.TableName] = struct{}{}
		names = append(names, c.TableName)
	}
	return names
}
