package db

import "github.com/kailas-cloud/examdex/internal/domain/search/filter"

// SortKey orders results by a SORTABLE field.
type SortKey struct {
	Field string
	Desc  bool
}

// SearchQuery is the input for a sorted, windowed predicate search.
type SearchQuery struct {
	IndexName string
	Filter    filter.Expression
	SortBy    []SortKey
	Offset    int
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Fields["$"] holds the JSON document.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
