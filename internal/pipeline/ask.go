package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/askql/pkg/core"
)

// AskResponse is the outcome of an ask call.
type AskResponse struct {
	Question    string     `json:"question" yaml:"question"`
	SQL         string     `json:"sql" yaml:"sql"`
	Explanation string     `json:"explanation" yaml:"explanation"`
	Executed    bool       `json:"executed" yaml:"executed"`
	Dialect     string     `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Result      []core.Row `json:"result,omitempty" yaml:"result,omitempty"`
	RowCount    *int       `json:"rowCount,omitempty" yaml:"row_count,omitempty"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp   time.Time  `json:"timestamp" yaml:"timestamp"`
}

// askResponseWire is the encoded form of AskResponse.
// Result is present exactly when the query ran, even with zero rows.
type askResponseWire struct {
	Question    string      `json:"question" yaml:"question"`
	SQL         string      `json:"sql" yaml:"sql"`
	Explanation string      `json:"explanation" yaml:"explanation"`
	Executed    bool        `json:"executed" yaml:"executed"`
	Dialect     string      `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Result      *[]core.Row `json:"result,omitempty" yaml:"result,omitempty"`
	RowCount    *int        `json:"rowCount,omitempty" yaml:"row_count,omitempty"`
	Error       string      `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp   time.Time   `json:"timestamp" yaml:"timestamp"`
}

func (r AskResponse) wire() askResponseWire {
	w := askResponseWire{
		Question:    r.Question,
		SQL:         r.SQL,
		Explanation: r.Explanation,
		Executed:    r.Executed,
		Dialect:     r.Dialect,
		RowCount:    r.RowCount,
		Error:       r.Error,
		Timestamp:   r.Timestamp,
	}
	if r.Executed {
		rows := r.Result
		if rows == nil {
			rows = []core.Row{}
		}
		w.Result = &rows
	}
	return w
}

// MarshalJSON implements json.Marshaler.
func (r AskResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// MarshalYAML implements yaml.Marshaler.
func (r AskResponse) MarshalYAML() (any, error) {
	return r.wire(), nil
}

// Ask answers a question over the whole catalog. The generated SQL targets
// the dialect of whichever store served the schema.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	log := s.log(ctx, "ask")
	question := strings.TrimSpace(req.Question)
	resp := &AskResponse{Question: question, Timestamp: s.now().UTC()}

	snap, err := s.catalog.Columns(ctx, "")
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		log.Warn("schema unavailable", slog.String("error", err.Error()))
		resp.Error = err.Error()
		return resp, nil
	}
	resp.Dialect = snap.Dialect

	gen := s.generator.Generate(ctx, question, snap.Columns, snap.Dialect)
	if gen.Failed() {
		resp.Explanation = gen.Explanation
		resp.Error = gen.Error
		return resp, nil
	}
	resp.SQL = gen.SQL

	if req.GenerateOnly {
		resp.Explanation = s.explain(ctx, gen)
		return resp, nil
	}

	if v := s.executor.Check(gen.SQL); !v.Valid {
		resp.Explanation = gen.Explanation
		resp.Error = v.Error
		return resp, nil
	}

	rows, err := s.executor.Run(ctx, gen.SQL)
	if err != nil {
		if !recoverable(err) {
			return nil, err
		}
		log.Info("generated sql failed", slog.String("error", err.Error()))
		resp.Explanation = s.explain(ctx, gen)
		resp.Error = err.Error()
		return resp, nil
	}

	resp.Explanation = s.explain(ctx, gen)
	resp.Executed = true
	resp.Result = rows
	n := len(rows)
	resp.RowCount = &n
	log.Info("question answered", slog.String("dialect", snap.Dialect), slog.Int("rows", n))
	return resp, nil
}
