// Package text expands a free-text query into the match clauses used for exam search.
package text

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// Expand turns raw into a match-any condition of three clauses over fields:
// phrase-prefix on the raw terms, phrase-prefix on the normalized terms, and an
// unweighted fuzzy match on the raw terms. The normalized clause is left out
// when it would repeat the raw one. Blank input yields no condition.
func Expand(raw string, fields []filter.FieldWeight) filter.Condition {
	terms := Tokenize(raw)
	if len(terms) == 0 || len(fields) == 0 {
		return filter.Condition{}
	}

	clauses := []filter.TextClause{
		{Mode: filter.PhrasePrefix, Terms: terms, Fields: fields, Weighted: true},
	}
	if normalized := Tokenize(Normalize(raw)); len(normalized) > 0 && !slices.Equal(normalized, terms) {
		clauses = append(clauses, filter.TextClause{Mode: filter.PhrasePrefix, Terms: normalized, Fields: fields, Weighted: true})
	}
	clauses = append(clauses, filter.TextClause{Mode: filter.Fuzzy, Terms: terms, Fields: fields})

	return filter.AnyText(clauses...)
}

// Normalize decomposes s, strips combining marks and lower-cases the result.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokenize splits s on every rune that is neither a letter nor a digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// FuzzyDistance scales the allowed edit distance with term length:
// 0 up to 2 runes, 1 up to 5 runes, 2 beyond.
func FuzzyDistance(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}
