package filter

// TextMode selects how a text clause matches.
type TextMode int

const (
	// PhrasePrefix matches the terms in order, the last one as a prefix.
	PhrasePrefix TextMode = iota
	// Fuzzy matches each term within an edit distance scaled to its length.
	Fuzzy
)

// FieldWeight is a text field with its relevance boost.
type FieldWeight struct {
	Field  string
	Weight float64
}

// TextClause matches Terms against Fields. Unweighted clauses ignore field boosts.
type TextClause struct {
	Mode     TextMode
	Terms    []string
	Fields   []FieldWeight
	Weighted bool
}
