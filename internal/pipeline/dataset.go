package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/askql/pkg/core"
	"github.com/leapstack-labs/askql/pkg/dialect"
)

// ErrDatasetNotFound is returned when a dataset id names no table.
var ErrDatasetNotFound = errors.New("No dataset found. Please upload a CSV first.")

// DatasetAskResponse is the outcome of a dataset-ask call.
type DatasetAskResponse struct {
	TableName   string     `json:"tableName" yaml:"table_name"`
	Question    string     `json:"question" yaml:"question"`
	SQL         string     `json:"sql,omitempty" yaml:"sql,omitempty"`
	Python      string     `json:"python,omitempty" yaml:"python,omitempty"`
	Explanation string     `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Preview     []core.Row `json:"preview,omitempty" yaml:"preview,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// AskDataset answers a question about one uploaded dataset. The SQL
// targets the Embedded store, and only the first PreviewRows rows return.
func (s *Service) AskDataset(ctx context.Context, req DatasetAskRequest) (*DatasetAskResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	log := s.log(ctx, "dataset_ask").With(slog.String("dataset", req.DatasetID))
	question := strings.TrimSpace(req.Question)
	resp := &DatasetAskResponse{TableName: req.DatasetID, Question: question}

	cols, err := s.catalog.DatasetColumns(ctx, req.DatasetID)
	if core.IsKind(err, core.KindBackendUnavailable) {
		resp.Error = err.Error()
		return resp, nil
	}
	if err != nil || len(cols) == 0 {
		if err != nil {
			log.Debug("dataset introspection failed", slog.String("error", err.Error()))
		}
		return nil, core.E(core.KindInput, "", ErrDatasetNotFound)
	}

	gen := s.generator.Generate(ctx, question, cols, dialect.SQLite)
	if gen.Failed() {
		resp.Error = gen.Error
		if resp.Error == "" {
			resp.Error = "Failed to generate SQL"
		}
		return resp, nil
	}
	resp.SQL = gen.SQL

	if v := s.executor.Check(gen.SQL); !v.Valid {
		resp.Error = v.Error
		return resp, nil
	}

	store, err := s.embedded.Embedded(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp, nil
	}
	rows, err := s.executor.Preview(ctx, store, gen.SQL, PreviewRows)
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		log.Info("generated sql failed", slog.String("error", err.Error()))
		resp.Error = err.Error()
		return resp, nil
	}

	resp.Python = s.scripts.Synthesize(ctx, req.DatasetID, gen.SQL)
	resp.Explanation = s.explain(ctx, gen)
	resp.Preview = rows
	log.Info("dataset question answered", slog.Int("rows", len(rows)))
	return resp, nil
}
