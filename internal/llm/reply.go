package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
	sqlStart    = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
)

// StripCodeFences returns the body of the first fenced code block in text,
// or the trimmed text when it has none.
func StripCodeFences(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}

type sqlReply struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// ParseSQLReply extracts a SQL statement and an explanation from a model reply.
// It understands a JSON object {"sql", "explanation"} (optionally fenced),
// a fenced SQL block surrounded by prose, and bare SQL. sql is empty when
// the reply contains no statement.
func ParseSQLReply(text string) (sql, explanation string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	if r, ok := parseJSONReply(text); ok {
		return strings.TrimSpace(r.SQL), strings.TrimSpace(r.Explanation)
	}

	if loc := fencedBlock.FindStringSubmatchIndex(text); loc != nil {
		sql = strings.TrimSpace(text[loc[2]:loc[3]])
		prose := text[:loc[0]] + text[loc[1]:]
		if sql != "" && sqlStart.MatchString(sql) {
			return sql, strings.TrimSpace(prose)
		}
	}

	if sqlStart.MatchString(text) {
		return text, ""
	}
	return "", ""
}

func parseJSONReply(text string) (sqlReply, bool) {
	body := StripCodeFences(text)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return sqlReply{}, false
	}

	var r sqlReply
	if err := json.Unmarshal([]byte(body[start:end+1]), &r); err != nil {
		return sqlReply{}, false
	}
	if strings.TrimSpace(r.SQL) == "" && strings.TrimSpace(r.Explanation) == "" {
		return sqlReply{}, false
	}
	return r, true
}
