// Package ingest turns uploaded delimited text into dataset tables in the Embedded store.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyInput is returned when the upload has no header line.
var ErrEmptyInput = errors.New("empty CSV")

// Table is parsed delimited text: a header and positionally aligned rows.
// Every row has exactly len(Headers) values.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parse reads comma-delimited text. Quoted fields may contain commas, quotes and newlines.
// Blank lines are dropped, header names are trimmed, short rows are padded
// with "" and values beyond the last header are ignored.
func Parse(content string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		if isBlank(rec) {
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// isBlank reports whether a record came from a whitespace-only line.
func isBlank(rec []string) bool {
	return len(rec) == 1 && strings.TrimSpace(rec[0]) == ""
}

// Records returns the first n rows keyed by original header.
// When headers repeat, the rightmost value wins.
func (t *Table) Records(n int) []map[string]string {
	n = min(n, len(t.Rows))
	out := make([]map[string]string, n)
	for i := range n {
		rec := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			rec[h] = t.Rows[i][j]
		}
		out[i] = rec
	}
	return out
}
