package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholder replaces a header that sanitizes to nothing.
const Placeholder = "col"

var unsafeIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeIdentifier replaces every character outside [A-Za-z0-9_] with "_".
func SanitizeIdentifier(name string) string {
	s := unsafeIdentChars.ReplaceAllString(name, "_")
	if s == "" {
		return Placeholder
	}
	return s
}

// SanitizeHeaders sanitizes headers in order.
// Later duplicates get _2, _3, ... suffixes so every column name is unique.
// Names are compared case-insensitively, as SQL identifiers are.
func SanitizeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		base := SanitizeIdentifier(h)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// IsSafeIdentifier reports whether s is non-empty and entirely [A-Za-z0-9_].
func IsSafeIdentifier(s string) bool {
	return s != "" && !unsafeIdentChars.MatchString(s)
}
