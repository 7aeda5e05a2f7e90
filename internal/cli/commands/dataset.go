package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/askql/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	var format, name string

	cmd := &cobra.Command{
		Use:   "upload <file.csv|->",
		Short: "Load a CSV file as a queryable dataset",
		Long: `Parse a CSV file, infer its column types and load it into a new table of
the embedded store. The printed dataset id is what ask-dataset expects.

Use "-" to read the CSV from standard input.`,
		Example: `  askql upload sales.csv
  cat sales.csv | askql upload - --name sales.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			content, filename, err := readUpload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if name != "" {
				filename = name
			}

			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			resp, err := app.Service.Upload(cmd.Context(), pipeline.UploadRequest{Filename: filename, Content: content})
			if err != nil {
				return err
			}
			if err := renderUpload(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Filename to record for the dataset")
	addFormatFlag(cmd, &format)

	return cmd
}

func readUpload(stdin io.Reader, arg string) (content, filename string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), "", nil
	}
	data, err := os.ReadFile(arg) //nolint:gosec // path comes from the command line
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return string(data), filepath.Base(arg), nil
}

func renderUpload(w io.Writer, resp *pipeline.UploadResponse, format string) error {
	if done, err := renderStructured(w, format, resp); done {
		return err
	}
	if resp.Error != "" {
		return nil
	}

	styles := NewStyles(w)
	_, _ = fmt.Fprintf(w, "%s created from %s\n\n", styles.Heading.Render("Dataset "+resp.DatasetID), resp.Filename)
	t := newTable(w)
	t.AppendHeader(table.Row{"column", "type", "samples"})
	for _, c := range resp.Columns {
		t.AppendRow(table.Row{c.Name, c.Type, strings.Join(c.SampleValues, ", ")})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "\n%s\n", resp.Analysis)
	return nil
}

// NewAskDatasetCommand creates the ask-dataset command.
func NewAskDatasetCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "ask-dataset <dataset-id> <question>",
		Short: "Ask a question about an uploaded dataset",
		Long: `Generate SQL for a question about one uploaded dataset, preview its first
rows and print a Python script that reproduces the query.`,
		Example: `  askql ask-dataset csv_m1x2y3z4_ab12c "average age by city"`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			resp, err := app.Service.AskDataset(cmd.Context(), pipeline.DatasetAskRequest{
				DatasetID: args[0],
				Question:  strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			if err := renderDatasetAnswer(cmd.OutOrStdout(), resp, format); err != nil {
				return err
			}
			if resp.Error != "" {
				return errors.New(resp.Error)
			}
			return nil
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func renderDatasetAnswer(w io.Writer, resp *pipeline.DatasetAskResponse, format string) error {
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
	if resp.Error != "" {
		return nil
	}
	renderRows(w, resp.Preview)
	if resp.Python != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n%s\n", styles.Heading.Render("Python:"), indent(resp.Python, "  "))
	}
	return nil
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List uploaded datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			return listDatasets(cmd.Context(), cmd.OutOrStdout(), app, format)
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func listDatasets(ctx context.Context, w io.Writer, app *App, format string) error {
	resp, err := app.Service.Datasets(ctx)
	if err != nil {
		return err
	}
	if done, err := renderStructured(w, format, resp); done || err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	if resp.Count == 0 {
		_, _ = fmt.Fprintln(w, "No datasets uploaded yet")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"dataset", "file", "rows", "columns", "created"})
	for _, d := range resp.Datasets {
		t.AppendRow(table.Row{d.ID, d.Filename, d.RowCount, d.ColumnCount, d.CreatedAt.Local().Format(time.DateTime)})
	}
	t.Render()
	return nil
}
