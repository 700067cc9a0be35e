package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/examdex/internal/db"
	"github.com/kailas-cloud/examdex/internal/domain"
	domexam "github.com/kailas-cloud/examdex/internal/domain/exam"
	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// store is the consumer interface for exams (ISP).
type store interface {
	JSONCreate(ctx context.Context, key string, data []byte) error
	JSONMerge(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, index string, expr filter.Expression) (int, error)
}

// listOrder is examDate desc with undated exams last, then createdAt desc.
var listOrder = []db.SortKey{
	{Field: domexam.FieldHasExamDate, Desc: true},
	{Field: domexam.FieldExamDate, Desc: true},
	{Field: domexam.FieldCreatedAt, Desc: true},
}

// Repo implements the exam repository on RedisJSON + RediSearch.
type Repo struct {
	store  store
	prefix string
}

// New creates an exam repository. prefix namespaces every key and the index.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Create stores a new exam. The id must not be taken.
func (r *Repo) Create(ctx context.Context, e *domexam.Exam) error {
	key := examKey(r.prefix, e.ID())
	data, err := json.Marshal(toDoc(e))
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}
	if err := r.store.JSONCreate(ctx, key, data); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("create %s: id already taken: %w", key, err)
		}
		return storageErr("json.set "+key, err)
	}
	return nil
}

// Get returns an exam by ID.
func (r *Repo) Get(ctx context.Context, id string) (domexam.Exam, error) {
	key := examKey(r.prefix, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domexam.Exam{}, fmt.Errorf("exam %s: %w", id, domain.ErrNotFound)
		}
		return domexam.Exam{}, storageErr("json.get "+key, err)
	}

	d, ok, err := parseRootResult(string(raw))
	if err != nil {
		return domexam.Exam{}, err
	}
	if !ok {
		return domexam.Exam{}, fmt.Errorf("exam %s: %w", id, domain.ErrNotFound)
	}
	if d.ID == "" {
		d.ID = id
	}
	return d.toDomain(), nil
}

// SaveAnalysis merges the analysis into an existing exam. Text and timestamp
// land in a single JSON.MERGE. A deleted exam is not recreated.
func (r *Repo) SaveAnalysis(ctx context.Context, id string, a domexam.Analysis) error {
	key := examKey(r.prefix, id)
	data, err := json.Marshal(toAnalysisDoc(a))
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := r.store.JSONMerge(ctx, key, "$.analysis", data); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("exam %s: %w", id, domain.ErrNotFound)
		}
		return storageErr("json.merge "+key, err)
	}
	return nil
}

// Delete removes an exam. The index drops it before DEL returns.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := examKey(r.prefix, id)
	if err := r.store.Del(ctx, key); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("exam %s: %w", id, domain.ErrNotFound)
		}
		return storageErr("del "+key, err)
	}
	return nil
}

// Count returns the number of exams matching expr.
func (r *Repo) Count(ctx context.Context, expr filter.Expression) (int, error) {
	n, err := r.store.Count(ctx, indexName(r.prefix), expr)
	if err != nil {
		return 0, storageErr("count exams", err)
	}
	return n, nil
}

// Search returns one window of exams matching expr, newest exam date first.
func (r *Repo) Search(ctx context.Context, expr filter.Expression, offset, limit int) ([]domexam.Exam, error) {
	res, err := r.store.Search(ctx, &db.SearchQuery{
		IndexName: indexName(r.prefix),
		Filter:    expr,
		SortBy:    listOrder,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, storageErr("search exams", err)
	}
	if res == nil {
		return nil, nil
	}

	exams := make([]domexam.Exam, 0, len(res.Entries))
	for _, entry := range res.Entries {
		d, ok, err := parseRootResult(entry.Fields["$"])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", entry.Key, err)
		}
		if !ok {
			continue
		}
		if d.ID == "" {
			d.ID = extractID(r.prefix, entry.Key)
		}
		exams = append(exams, d.toDomain())
	}
	return exams, nil
}

func keyPrefix(prefix string) string {
	return prefix + "exam:"
}

func examKey(prefix, id string) string {
	return keyPrefix(prefix) + id
}

func indexName(prefix string) string {
	return prefix + "exams:idx"
}

func extractID(prefix, key string) string {
	return strings.TrimPrefix(key, keyPrefix(prefix))
}

// storageErr classifies a store failure as ErrStorageUnavailable, keeping the cause in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
