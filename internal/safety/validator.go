// Package safety statically decides whether generated SQL may be executed.
// Only a single read-only SELECT-class statement is accepted.
package safety

import (
	"regexp"
	"strings"
)

// Verdict is the outcome of Validate. Error is set when Valid is false.
type Verdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Rejection reasons.
const (
	ReasonEmpty        = "SQL statement is empty"
	ReasonNotSelect    = "Only SELECT queries are allowed"
	ReasonMultiple     = "Multiple SQL statements are not allowed"
	ReasonUnterminated = "SQL contains an unterminated string, identifier or comment"
)

// leadingKeywords are the statement starts accepted as read-only.
var leadingKeywords = map[string]bool{
	"SELECT": true,
	"WITH":   true,
}

// forbidden matches mutation and schema-change keywords as whole words, anywhere in the text.
var forbidden = []struct {
	name string
	re   *regexp.Regexp
}{
	{"INSERT", wordRe(`INSERT`)},
	{"UPDATE", wordRe(`UPDATE`)},
	{"DELETE", wordRe(`DELETE`)},
	{"DROP", wordRe(`DROP`)},
	{"ALTER", wordRe(`ALTER`)},
	{"TRUNCATE", wordRe(`TRUNCATE`)},
	{"ATTACH", wordRe(`ATTACH`)},
	{"DETACH", wordRe(`DETACH`)},
	{"PRAGMA", wordRe(`PRAGMA`)},
	{"CREATE", wordRe(`CREATE`)},
	{"REPLACE INTO", wordRe(`REPLACE\s+INTO`)},
	{"INTO", wordRe(`INTO`)},
	{"MERGE", wordRe(`MERGE`)},
	{"UPSERT", wordRe(`UPSERT`)},
	{"GRANT", wordRe(`GRANT`)},
	{"REVOKE", wordRe(`REVOKE`)},
	{"VACUUM", wordRe(`VACUUM`)},
	{"REINDEX", wordRe(`REINDEX`)},
	{"COPY", wordRe(`COPY`)},
	{"EXEC", wordRe(`EXEC(UTE)?`)},
	{"CALL", wordRe(`CALL`)},
	{"LOCK", wordRe(`LOCK`)},
	// PostgreSQL functions with side effects callable from a SELECT.
	{"SETVAL", wordRe(`SETVAL`)},
	{"NEXTVAL", wordRe(`NEXTVAL`)},
	{"SET_CONFIG", wordRe(`SET_CONFIG`)},
	{"PG_TERMINATE_BACKEND", wordRe(`PG_TERMINATE_BACKEND`)},
	{"PG_CANCEL_BACKEND", wordRe(`PG_CANCEL_BACKEND`)},
	{"PG_RELOAD_CONF", wordRe(`PG_RELOAD_CONF`)},
	{"LO_UNLINK", wordRe(`LO_UNLINK`)},
	{"LO_IMPORT", wordRe(`LO_IMPORT`)},
	{"LO_EXPORT", wordRe(`LO_EXPORT`)},
	{"DBLINK_EXEC", wordRe(`DBLINK_EXEC`)},
}

func wordRe(kw string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_])` + kw + `($|[^A-Za-z0-9_])`)
}

func reject(reason string) Verdict {
	return Verdict{Valid: false, Error: reason}
}

// Validate accepts sql only if it is a single statement that starts with a
// SELECT-class keyword and contains no mutation or schema-change keyword.
func Validate(sql string) Verdict {
	if strings.TrimSpace(sql) == "" {
		return reject(ReasonEmpty)
	}

	kw, ok := leadingKeyword(sql)
	if !ok {
		return reject(ReasonUnterminated)
	}
	if !leadingKeywords[kw] {
		return reject(ReasonNotSelect)
	}

	multi, ok := hasSecondStatement(sql)
	if !ok {
		return reject(ReasonUnterminated)
	}
	if multi {
		return reject(ReasonMultiple)
	}

	for _, f := range forbidden {
		if f.re.MatchString(sql) {
			return reject("Forbidden keyword: " + f.name)
		}
	}

	return Verdict{Valid: true}
}

// leadingKeyword returns the first word after whitespace, comments and opening parentheses.
// ok is false when a comment is unterminated.
func leadingKeyword(sql string) (string, bool) {
	s := newScanner(sql)
	for {
		start := s.pos
		kind, ch := s.next()
		switch kind {
		case unitComment:
			continue
		case unitUnterminated:
			return "", false
		case unitCode:
			if isSpace(ch) || ch == '(' {
				continue
			}
			if !isWordChar(ch) {
				return "", true
			}
			end := start
			for end < len(sql) && isWordChar(sql[end]) {
				end++
			}
			return strings.ToUpper(sql[start:end]), true
		default:
			return "", true
		}
	}
}

// hasSecondStatement reports whether a semicolon outside strings and comments
// is followed by anything other than whitespace, comments or more semicolons.
func hasSecondStatement(sql string) (multi, ok bool) {
	s := newScanner(sql)
	seenSemicolon := false
	for {
		kind, ch := s.next()
		switch kind {
		case unitEOF:
			return false, true
		case unitUnterminated:
			return false, false
		case unitComment:
			continue
		case unitCode:
			if ch == ';' {
				seenSemicolon = true
				continue
			}
			if seenSemicolon && !isSpace(ch) {
				return true, true
			}
		default:
			if seenSemicolon {
				return true, true
			}
		}
	}
}
