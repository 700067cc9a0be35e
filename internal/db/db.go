package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/examdex/internal/domain/search/filter"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	JSONStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	// JSONSet writes data at path, overwriting.
	JSONSet(ctx context.Context, key, path string, data []byte) error
	// JSONCreate writes a new root document; ErrKeyExists if key is taken.
	JSONCreate(ctx context.Context, key string, data []byte) error
	// JSONMerge merges data into an existing document at path; ErrKeyNotFound if absent.
	JSONMerge(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	// JSONMGet returns the root document for each key; missing keys yield nil.
	JSONMGet(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetNX stores value with ttl only if key is absent. Returns false if it was present.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// DelIfEqual deletes key only while it still holds value.
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides predicate search over FT indexes.
type Searcher interface {
	// Search returns one sorted window of documents matching q.
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	// Count returns the number of documents matching expr.
	Count(ctx context.Context, index string, expr filter.Expression) (int, error)
}
