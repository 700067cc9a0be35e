package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/examdex/internal/db"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

const keyField = "__key"

// Search runs a sorted, windowed predicate search. FT.AGGREGATE supplies the
// ordered keys (FT.SEARCH allows a single SORTBY field), JSON.MGET the documents.
// Keys deleted between the two calls are skipped.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	query, err := buildQuery(q.Filter)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	args := []string{q.IndexName, query, "LOAD", "1", "@" + keyField}
	if len(q.SortBy) > 0 {
		args = append(args, "SORTBY", strconv.Itoa(len(q.SortBy)*2))
		for _, k := range q.SortBy {
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			args = append(args, "@"+k.Field, dir)
		}
		args = append(args, "MAX", strconv.Itoa(q.Offset+q.Limit))
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	keys, err := parseAggregateKeys(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	if len(keys) == 0 {
		return &db.SearchResult{}, nil
	}

	docs, err := s.JSONMGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	entries := make([]db.SearchEntry, 0, len(keys))
	for i, key := range keys {
		if docs[i] == nil {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: map[string]string{"$": string(docs[i])},
		})
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// Count returns the number of documents matching expr via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, index string, expr filter.Expression) (int, error) {
	query, err := buildQuery(expr)
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse count: %w", err)}
	}
	return int(total), nil
}

// --- Result parsing ---

// parseAggregateKeys reads [total, [__key, k1, ...], [__key, k2, ...], ...].
func parseAggregateKeys(raw []rueidis.RedisMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	keys := make([]string, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		if key := parseFieldPairs(row)[keyField]; key != "" {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
