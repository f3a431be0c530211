package usecase

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

const (
	contextSeparator = "\n---\n"
	sourceLimit      = 3
	snippetRunes     = 250
)

// assembleContext packs ranked candidates into page-tagged blocks under
// a rune budget. Two selection passes run first: the top similarTake
// candidates by rank, then candidates whose text contains an important
// question token, scanning in rank order until selectLimit total.
// Packing is all-or-nothing per block and counts separators, so the
// result never exceeds budget runes. Empty string is a valid outcome.
func assembleContext(
	items []domain.Candidate,
	question string,
	budget, similarTake, selectLimit, tokenLimit int,
	stopWords map[string]struct{},
) string {
	if len(items) == 0 || budget <= 0 {
		return ""
	}
	if similarTake > selectLimit {
		similarTake = selectLimit
	}

	picked := similarityPick(len(items), similarTake)
	tokens := importantTokens(question, stopWords, tokenLimit)
	picked = append(picked, keywordPick(items, tokens, picked, selectLimit)...)

	blocks := make([]string, 0, len(picked))
	total := 0
	for _, idx := range picked {
		text := strings.TrimSpace(items[idx].Text)
		if text == "" {
			continue
		}
		block := fmt.Sprintf("[Page %d]\n%s\n", items[idx].Page, text)
		cost := utf8.RuneCountInString(block)
		if len(blocks) > 0 {
			cost += utf8.RuneCountInString(contextSeparator)
		}
		if total+cost > budget {
			break
		}
		blocks = append(blocks, block)
		total += cost
	}
	return strings.TrimSpace(strings.Join(blocks, contextSeparator))
}

// similarityPick selects the first take indexes: candidates arrive
// sorted by ascending distance, so rank order is relevance order.
func similarityPick(total, take int) []int {
	if take > total {
		take = total
	}
	if take < 0 {
		take = 0
	}
	out := make([]int, 0, take)
	for i := 0; i < take; i++ {
		out = append(out, i)
	}
	return out
}

// keywordPick scans candidates in rank order and selects those whose
// lowercased text contains any important token, skipping indexes already
// picked, until the combined selection reaches limit.
func keywordPick(items []domain.Candidate, tokens []string, picked []int, limit int) []int {
	if len(tokens) == 0 {
		return nil
	}
	used := make(map[int]struct{}, len(picked))
	for _, idx := range picked {
		used[idx] = struct{}{}
	}
	out := make([]int, 0, limit)
	for i, item := range items {
		if len(picked)+len(out) >= limit {
			break
		}
		if _, ok := used[i]; ok {
			continue
		}
		lowered := strings.ToLower(item.Text)
		for _, tok := range tokens {
			if strings.Contains(lowered, strings.ToLower(tok)) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// importantTokens extracts up to limit keyword tokens from a question:
// identifier-like tokens first (dotted and hyphenated names such as
// plugin.xml or notes.ini survive whole), then lowercase words longer
// than two characters that are not stop words. First occurrence wins.
func importantTokens(question string, stopWords map[string]struct{}, limit int) []string {
	tokens := scanIdentifierTokens(question)
	for _, w := range scanAlphaWordsLower(question) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}

	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// scanIdentifierTokens returns substrings that start with an ASCII
// letter or underscore and continue for at least one more letter, digit,
// underscore, dot or hyphen. Case is preserved.
func scanIdentifierTokens(s string) []string {
	out := make([]string, 0, 8)
	for i := 0; i < len(s); {
		if !isIdentStart(s[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isIdentBody(s[j]) {
			j++
		}
		if j-i >= 2 {
			out = append(out, s[i:j])
			i = j
			continue
		}
		i++
	}
	return out
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentBody(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-'
}

// scanAlphaWordsLower returns lowercased runs of ASCII letters.
func scanAlphaWordsLower(s string) []string {
	out := make([]string, 0, 8)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if r >= 'a' && r <= 'z' {
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

// buildCitations returns up to limit single-line snippets with page
// provenance, in rank order. Snippets are capped at snippetRunes runes
// with newlines collapsed to spaces.
func buildCitations(items []domain.Candidate, limit int) []domain.SourceCitation {
	out := make([]domain.SourceCitation, 0, limit)
	for _, it := range items {
		if len(out) >= limit {
			break
		}
		text := strings.TrimSpace(it.Text)
		if text == "" {
			continue
		}
		out = append(out, domain.SourceCitation{Page: it.Page, Snippet: snippet(text)})
	}
	return out
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) > snippetRunes {
		runes = runes[:snippetRunes]
	}
	collapsed := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(string(runes))
	return strings.TrimSpace(collapsed)
}
