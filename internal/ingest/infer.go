package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Inferred column types. They are advisory: storage is always TEXT.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeDate    = "date"
)

// SampleSize is how many leading rows are inspected per column.
const SampleSize = 5

// dateLayouts are the calendar formats recognized as dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

// ColumnSummary is the inferred description of one uploaded column.
type ColumnSummary struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type" yaml:"type"`
	SampleValues []string `json:"sampleValues" yaml:"sample_values"`
}

// DetectType classifies a single value.
func DetectType(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return TypeString
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		if math.IsInf(f, 0) || math.Trunc(f) != f {
			return TypeFloat
		}
		return TypeInteger
	}
	if isDate(s) {
		return TypeDate
	}
	return TypeString
}

func isDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// InferType resolves a column type from its samples.
// Precedence: string > float > integer > date; no samples means string.
func InferType(samples []string) string {
	seen := make(map[string]bool, 4)
	for _, s := range samples {
		seen[DetectType(s)] = true
	}
	for _, t := range []string{TypeString, TypeFloat, TypeInteger, TypeDate} {
		if seen[t] {
			return t
		}
	}
	return TypeString
}

// InferColumns summarizes every column from the first SampleSize rows.
func InferColumns(t *Table) []ColumnSummary {
	n := min(SampleSize, len(t.Rows))
	cols := make([]ColumnSummary, len(t.Headers))
	for i, h := range t.Headers {
		samples := make([]string, n)
		for r := range n {
			samples[r] = t.Rows[r][i]
		}
		cols[i] = ColumnSummary{Name: h, Type: InferType(samples), SampleValues: samples}
	}
	return cols
}
