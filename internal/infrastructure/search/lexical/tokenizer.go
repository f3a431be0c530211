package lexical

import (
	"strings"
	"unicode"
)

// tokenize lowercases the input and returns maximal runs of ASCII
// letters, digits and underscores. Identifier-ish terms like
// dt_databases survive intact; everything else separates tokens. The
// same function tokenizes both chunks and questions so overlap is
// symmetric.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
