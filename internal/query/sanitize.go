package query

import (
	"strings"
	"unicode"
)

// Sanitize trims s and drops control characters other than newline and tab.
// Postgres rejects NUL in text columns, the rest is noise from copy-paste.
func Sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeAll sanitizes every value and drops the ones left empty.
func SanitizeAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = Sanitize(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
