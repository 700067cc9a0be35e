package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/examdex/internal/db"
)

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONCreate stores a new root document via JSON.SET NX.
func (s *Store) JSONCreate(ctx context.Context, key string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args("$", string(data), "NX").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return db.ErrKeyExists
		}
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONMerge applies a JSON merge patch at path. A non-root path on a missing
// key is rejected by Redis, which is reported as ErrKeyNotFound.
func (s *Store) JSONMerge(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.MERGE").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) || isRedisErr(err, "created at the root") || isRedisErr(err, "does not exist") {
			return db.ErrKeyNotFound
		}
		return &db.Error{Op: db.OpJSONMerge, Err: err}
	}
	return nil
}

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	args := make([]string, len(paths))
	copy(args, paths)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONMGet retrieves the "$" view of several documents in one round-trip.
// The result is positional; missing keys yield nil.
func (s *Store) JSONMGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmd := s.b().Arbitrary("JSON.MGET").Keys(keys...).Args("$").Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpJSONMGet, Err: err}
	}

	out := make([][]byte, len(keys))
	for i := 0; i < len(msgs) && i < len(keys); i++ {
		if msgs[i].IsNil() {
			continue
		}
		raw, err := msgs[i].ToString()
		if err != nil || raw == "" {
			continue
		}
		out[i] = []byte(raw)
	}
	return out, nil
}

// Del removes a key. Deleting a missing key returns ErrKeyNotFound.
// RediSearch drops the document from its index synchronously.
func (s *Store) Del(ctx context.Context, key string) error {
	cmd := s.b().Del().Key(key).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	if n == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}
