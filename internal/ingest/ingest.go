package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/internal/observe"
	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults for Config.
const (
	DefaultBatchSize   = 200
	DefaultPreviewRows = 5
)

// Source hands out the Embedded store. Dataset tables never live anywhere else.
type Source interface {
	Embedded(ctx context.Context) (core.Store, error)
}

// Config tunes ingestion.
type Config struct {
	BatchSize   int
	PreviewRows int
}

// Result is the outcome of one successful ingestion.
type Result struct {
	DatasetID        string
	Filename         string
	RowCount         int
	ColumnCount      int
	Columns          []ColumnSummary
	SanitizedColumns []string
	Analysis         string
	SampleData       []map[string]string
	CreatedAt        time.Time
}

// Ingestor materializes uploads as dataset tables.
type Ingestor struct {
	source  Source
	cfg     Config
	logger  *slog.Logger
	metrics *observe.Metrics
	printer *message.Printer
	now     func() time.Time
}

// New creates an Ingestor. Zero config values take the defaults.
// If logger is nil, a discard logger is used.
func New(source Source, cfg Config, logger *slog.Logger, metrics *observe.Metrics) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	return &Ingestor{
		source:  source,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// Ingest parses content, creates a fresh dataset table and loads every row.
// A load failure can leave earlier batches committed; the error reports how many.
func (i *Ingestor) Ingest(ctx context.Context, filename, content string) (*Result, error) {
	const op = "ingest"

	if strings.TrimSpace(content) == "" {
		return nil, core.E(core.KindInput, op, errors.New("file content is required"))
	}
	table, err := Parse(content)
	if errors.Is(err, ErrEmptyInput) {
		return nil, core.E(core.KindInput, op, err)
	}
	if err != nil {
		return nil, core.E(core.KindIngest, op, err)
	}

	store, err := i.source.Embedded(ctx)
	if err != nil {
		return nil, err
	}

	now := i.now()
	id := NewDatasetID(now)
	columns, err := i.CreateTable(ctx, store, id, table.Headers)
	if err != nil {
		return nil, core.E(core.KindIngest, op, err)
	}

	loaded, err := i.BulkLoad(ctx, store, id, columns, table.Rows)
	i.metrics.RowsIngested(loaded)
	if err != nil {
		i.logger.Error("dataset partially loaded",
			slog.String("dataset", id), slog.Int("committed", loaded), slog.Int("rows", len(table.Rows)))
		return nil, core.E(core.KindIngest, op, err)
	}

	res := &Result{
		DatasetID:        id,
		Filename:         filename,
		RowCount:         len(table.Rows),
		ColumnCount:      len(table.Headers),
		Columns:          InferColumns(table),
		SanitizedColumns: columns,
		Analysis:         i.Analysis(table),
		SampleData:       table.Records(i.cfg.PreviewRows),
		CreatedAt:        now,
	}

	if reg, ok := store.(core.DatasetRegistry); ok {
		rec := core.DatasetRecord{
			ID:          id,
			Filename:    filename,
			RowCount:    res.RowCount,
			ColumnCount: res.ColumnCount,
			Columns:     columns,
			CreatedAt:   now,
		}
		if err := reg.RecordDataset(ctx, rec); err != nil {
			i.logger.Warn("failed to record dataset", slog.String("dataset", id), slog.String("error", err.Error()))
		}
	}

	i.logger.Info("dataset ingested",
		slog.String("dataset", id), slog.String("filename", filename),
		slog.Int("rows", res.RowCount), slog.Int("columns", res.ColumnCount))
	return res, nil
}

// CreateTable creates a table with one TEXT column per sanitized header
// and returns the sanitized names in header order.
func (i *Ingestor) CreateTable(ctx context.Context, store core.Store, table string, headers []string) ([]string, error) {
	if !IsSafeIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("no columns in header")
	}

	d := dialectFor(store)
	columns := SanitizeHeaders(headers)
	defs := make([]string, len(columns))
	for n, c := range columns {
		defs[n] = d.QuoteIdentifier(c) + " TEXT"
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", d.QuoteIdentifier(table), strings.Join(defs, ", "))
	if err := store.Exec(ctx, stmt); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return columns, nil
}

// BulkLoad inserts rows in fixed-size batches, one transaction per batch.
// It returns the number of committed rows; a failing batch is rolled back
// on its own and stops the load.
func (i *Ingestor) BulkLoad(ctx context.Context, store core.Store, table string, columns []string, rows [][]string) (int, error) {
	loaded := 0
	for start := 0; start < len(rows); start += i.cfg.BatchSize {
		end := min(start+i.cfg.BatchSize, len(rows))
		batch := normalize(rows[start:end], len(columns))
		if err := store.BatchInsert(ctx, table, columns, batch); err != nil {
			return loaded, fmt.Errorf("failed to load rows %d-%d of %s (%d committed): %w", start+1, end, table, loaded, err)
		}
		loaded += len(batch)
		i.logger.Debug("batch committed", slog.String("table", table), slog.Int("rows", loaded))
	}
	return loaded, nil
}

// normalize aligns every row to width, filling missing values with "".
func normalize(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for n, r := range rows {
		if len(r) == width {
			out[n] = r
			continue
		}
		row := make([]string, width)
		copy(row, r)
		out[n] = row
	}
	return out
}

// Analysis is the short description returned with an upload.
func (i *Ingestor) Analysis(t *Table) string {
	top := t.Headers[:min(3, len(t.Headers))]
	return i.printer.Sprintf("Detected %d rows and %d columns. Top columns: %s.",
		len(t.Rows), len(t.Headers), strings.Join(top, ", "))
}

// ListDatasets returns the registered datasets, newest first.
func (i *Ingestor) ListDatasets(ctx context.Context) ([]core.DatasetRecord, error) {
	store, err := i.source.Embedded(ctx)
	if err != nil {
		return nil, err
	}
	reg, ok := store.(core.DatasetRegistry)
	if !ok {
		return []core.DatasetRecord{}, nil
	}
	records, err := reg.ListDatasets(ctx)
	if err != nil {
		return nil, core.E(core.KindIngest, "list datasets", err)
	}
	return records, nil
}

func dialectFor(store core.Store) *dialect.Dialect {
	if d, ok := dialect.Get(store.DialectName()); ok {
		return d
	}
	d, _ := dialect.Get(dialect.SQLite)
	return d
}
