package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/internal/ingest"
	"github.com/leapstack-labs/askql/pkg/core"
)

// DefaultFilename names uploads that arrive without one.
const DefaultFilename = "upload.csv"

// UploadResponse is the outcome of an upload.
type UploadResponse struct {
	Filename    string                 `json:"filename" yaml:"filename"`
	RowCount    int                    `json:"rowCount" yaml:"row_count"`
	ColumnCount int                    `json:"columnCount" yaml:"column_count"`
	Columns     []ingest.ColumnSummary `json:"columns" yaml:"columns"`
	Analysis    string                 `json:"analysis" yaml:"analysis"`
	SampleData  []map[string]string    `json:"sampleData" yaml:"sample_data"`
	DatasetID   string                 `json:"datasetId,omitempty" yaml:"dataset_id,omitempty"`
	TableName   string                 `json:"tableName,omitempty" yaml:"table_name,omitempty"`
	Timestamp   time.Time              `json:"timestamp" yaml:"timestamp"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
}

// Upload ingests CSV content as a new dataset table.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = DefaultFilename
	}
	log := s.log(ctx, "upload").With(slog.String("filename", filename))

	res, err := s.ingestor.Ingest(ctx, filename, req.Content)
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		log.Warn("upload failed", slog.String("error", err.Error()))
		return &UploadResponse{
			Filename:   filename,
			Columns:    []ingest.ColumnSummary{},
			SampleData: []map[string]string{},
			Timestamp:  s.now().UTC(),
			Error:      err.Error(),
		}, nil
	}

	return &UploadResponse{
		Filename:    res.Filename,
		RowCount:    res.RowCount,
		ColumnCount: res.ColumnCount,
		Columns:     res.Columns,
		Analysis:    res.Analysis,
		SampleData:  res.SampleData,
		DatasetID:   res.DatasetID,
		TableName:   res.DatasetID,
		Timestamp:   res.CreatedAt.UTC(),
	}, nil
}

// SchemaResponse is the live catalog.
type SchemaResponse struct {
	Schema      []core.SchemaColumn `json:"schema" yaml:"schema"`
	Dialect     string              `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	TableCount  int                 `json:"tableCount" yaml:"table_count"`
	ColumnCount int                 `json:"columnCount" yaml:"column_count"`
	Timestamp   time.Time           `json:"timestamp" yaml:"timestamp"`
	Error       string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Schema returns the live catalog, optionally filtered to one table.
func (s *Service) Schema(ctx context.Context, table string) (*SchemaResponse, error) {
	resp := &SchemaResponse{Schema: []core.SchemaColumn{}, Timestamp: s.now().UTC()}

	snap, err := s.catalog.Columns(ctx, strings.TrimSpace(table))
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		s.log(ctx, "schema").Warn("schema unavailable", slog.String("error", err.Error()))
		resp.Error = err.Error()
		return resp, nil
	}
	if len(snap.Columns) == 0 {
		resp.Error = "No database schema available"
		return resp, nil
	}

	resp.Schema = snap.Columns
	resp.Dialect = snap.Dialect
	resp.TableCount = snap.TableCount()
	resp.ColumnCount = len(snap.Columns)
	return resp, nil
}

// DatasetsResponse lists the ingested datasets.
type DatasetsResponse struct {
	Datasets  []core.DatasetRecord `json:"datasets" yaml:"datasets"`
	Count     int                  `json:"count" yaml:"count"`
	Timestamp time.Time            `json:"timestamp" yaml:"timestamp"`
	Error     string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// Datasets lists the ingested datasets, newest first.
func (s *Service) Datasets(ctx context.Context) (*DatasetsResponse, error) {
	resp := &DatasetsResponse{Datasets: []core.DatasetRecord{}, Timestamp: s.now().UTC()}

	records, err := s.ingestor.ListDatasets(ctx)
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		resp.Error = err.Error()
		return resp, nil
	}
	resp.Datasets = records
	resp.Count = len(records)
	return resp, nil
}
