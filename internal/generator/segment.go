package generator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopWords = map[string]struct{}{
	"which": {}, "what": {}, "when": {}, "where": {}, "why": {}, "how": {},
}

// unit is one sentence-like span of the source text.
type unit struct {
	text   string
	tokens []string // every word in the unit, source casing
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '\r':
		return true
	}
	return false
}

func trimUnit(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// segment splits content into units longer than minLen runes. Spans that
// carry no word at all are dropped.
func segment(content string, minLen int) []unit {
	var out []unit
	for _, raw := range strings.FieldsFunc(content, isTerminator) {
		t := trimUnit(raw)
		if utf8.RuneCountInString(t) <= minLen {
			continue
		}
		toks := tokenize(t)
		if len(toks) == 0 {
			continue
		}
		out = append(out, unit{text: strings.Join(strings.Fields(t), " "), tokens: toks})
	}
	return out
}

func isKeyword(tok string) bool {
	if utf8.RuneCountInString(tok) <= 4 {
		return false
	}
	_, stop := stopWords[strings.ToLower(tok)]
	return !stop
}

// keywordSet collects the qualifying tokens of every unit, lower-cased.
func keywordSet(units []unit) map[string]struct{} {
	set := map[string]struct{}{}
	for _, u := range units {
		for _, tok := range u.tokens {
			if isKeyword(tok) {
				set[strings.ToLower(tok)] = struct{}{}
			}
		}
	}
	return set
}

// candidates returns the unit's keywords that are also in the global set,
// deduplicated case-insensitively. If none qualify every token of the unit
// is a candidate.
func (u unit) candidates(global map[string]struct{}) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tok := range u.tokens {
		low := strings.ToLower(tok)
		if !isKeyword(tok) {
			continue
		}
		if _, ok := global[low]; !ok {
			continue
		}
		if _, dup := seen[low]; dup {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, tok)
	}
	if len(out) > 0 {
		return out
	}
	for _, tok := range u.tokens {
		low := strings.ToLower(tok)
		if _, dup := seen[low]; dup {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, tok)
	}
	return out
}
