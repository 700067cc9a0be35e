package filter

// Expression is a conjunction of conditions. The zero value matches everything.
type Expression struct {
	must []Condition
}

// And returns an expression requiring every given condition.
func And(conds ...Condition) Expression {
	must := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c.kind != kindNone {
			must = append(must, c)
		}
	}
	return Expression{must: must}
}

// With returns a copy of e extended with c.
func (e Expression) With(c Condition) Expression {
	if c.kind == kindNone {
		return e
	}
	must := make([]Condition, len(e.must), len(e.must)+1)
	copy(must, e.must)
	return Expression{must: append(must, c)}
}

// Must returns the conditions in composition order.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

type kind int

const (
	kindNone kind = iota
	kindMatch
	kindDates
	kindText
)

// Condition is a single clause: exact keyword match, date range or text disjunction.
type Condition struct {
	kind  kind
	key   string
	match string
	dates DateRange
	text  []TextClause
}

// Match creates an exact keyword match condition. An empty value yields no clause.
func Match(key, value string) Condition {
	if key == "" || value == "" {
		return Condition{}
	}
	return Condition{kind: kindMatch, key: key, match: value}
}

// Dates creates a date range condition on key.
func Dates(key string, r DateRange) Condition {
	if key == "" || r.IsZero() {
		return Condition{}
	}
	return Condition{kind: kindDates, key: key, dates: r}
}

// AnyText creates a disjunction of text clauses. No clauses yields no condition.
func AnyText(clauses ...TextClause) Condition {
	if len(clauses) == 0 {
		return Condition{}
	}
	return Condition{kind: kindText, text: clauses}
}

// Key returns the field name (empty for text conditions).
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Dates returns the date range.
func (c Condition) Dates() DateRange { return c.dates }

// Text returns the text clauses, any of which may match.
func (c Condition) Text() []TextClause { return c.text }

// IsMatch reports whether this is a keyword match condition.
func (c Condition) IsMatch() bool { return c.kind == kindMatch }

// IsDates reports whether this is a date range condition.
func (c Condition) IsDates() bool { return c.kind == kindDates }

// IsText reports whether this is a text condition.
func (c Condition) IsText() bool { return c.kind == kindText }
