package redis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
	"github.com/kailas-cloud/examdex/internal/domain/search/text"
)

// minPrefixRunes mirrors the RediSearch MINPREFIX default; shorter prefixes are rejected.
const minPrefixRunes = 2

// buildQuery compiles an expression into a DIALECT 2 query string.
// The empty expression matches every document.
func buildQuery(expr filter.Expression) (string, error) {
	if expr.IsEmpty() {
		return "*", nil
	}

	parts := make([]string, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		var (
			part string
			err  error
		)
		switch {
		case c.IsMatch():
			part = buildTagFilter(c.Key(), c.Match())
		case c.IsDates():
			part, err = buildDateFilter(c.Key(), c.Dates())
		case c.IsText():
			part = buildTextFilter(c.Text())
		}
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "*", nil
	}
	return strings.Join(parts, " "), nil
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

// buildDateFilter renders an inclusive epoch-millisecond range.
func buildDateFilter(key string, r filter.DateRange) (string, error) {
	lo, hi, err := r.Bounds()
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	minBound, maxBound := "-inf", "+inf"
	if lo != nil {
		minBound = strconv.FormatInt(lo.UnixMilli(), 10)
	}
	if hi != nil {
		maxBound = strconv.FormatInt(hi.UnixMilli(), 10)
	}
	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound), nil
}

// buildTextFilter joins the clauses into one disjunction.
func buildTextFilter(clauses []filter.TextClause) string {
	alts := make([]string, 0, len(clauses)*3)
	for _, cl := range clauses {
		if len(cl.Terms) == 0 || len(cl.Fields) == 0 {
			continue
		}
		switch cl.Mode {
		case filter.PhrasePrefix:
			alts = append(alts, phrasePrefixClauses(cl)...)
		case filter.Fuzzy:
			alts = append(alts, fuzzyClause(cl))
		}
	}
	if len(alts) == 0 {
		return ""
	}
	return "(" + strings.Join(alts, " | ") + ")"
}

// phrasePrefixClauses emits one exact-order phrase per field so each can carry its own weight.
func phrasePrefixClauses(cl filter.TextClause) []string {
	terms := make([]string, len(cl.Terms))
	for i, t := range cl.Terms {
		terms[i] = escapeQuery(t)
	}
	last := cl.Terms[len(cl.Terms)-1]
	if utf8.RuneCountInString(last) >= minPrefixRunes {
		terms[len(terms)-1] += "*"
	}
	phrase := strings.Join(terms, " ")

	out := make([]string, 0, len(cl.Fields))
	for _, f := range cl.Fields {
		attrs := "$slop: 0; $inorder: true;"
		if cl.Weighted && f.Weight > 0 {
			attrs = fmt.Sprintf("$weight: %s; %s", strconv.FormatFloat(f.Weight, 'f', -1, 64), attrs)
		}
		out = append(out, fmt.Sprintf("(@%s:(%s)) => { %s }", f.Field, phrase, attrs))
	}
	return out
}

func fuzzyClause(cl filter.TextClause) string {
	names := make([]string, len(cl.Fields))
	for i, f := range cl.Fields {
		names[i] = f.Field
	}
	terms := make([]string, len(cl.Terms))
	for i, t := range cl.Terms {
		pct := strings.Repeat("%", text.FuzzyDistance(t))
		terms[i] = pct + escapeQuery(t) + pct
	}
	// Any term may match.
	return fmt.Sprintf("@%s:(%s)", strings.Join(names, "|"), strings.Join(terms, "|"))
}

// --- Escaping ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
