package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/examdex/internal/db"
)

var _ db.Store = (*Store)(nil)

// readyPollInterval is how often WaitForReady retries PING.
const readyPollInterval = 100 * time.Millisecond

// Config holds connection parameters for the exam store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName is sent with CLIENT SETNAME so the connections show up in CLIENT LIST.
	ClientName string
}

// Store is the Redis 8 (RediSearch + RedisJSON) implementation of db.Store.
type Store struct {
	client rueidis.Client
}

// NewStore dials Redis. Client-side caching is off: exam documents are read
// through FT.AGGREGATE and JSON.MGET, which the tracking cache does not cover.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = "examdex"
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   name,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH/FT.AGGREGATE parsing expects RESP2 arrays
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings immediately, then every readyPollInterval, until Redis
// answers or timeout elapses. The last ping error is reported on timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = s.Ping(ctx); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s: %w", timeout, lastErr)
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a Redis server reply whose message
// contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsFold(re.Error(), substr)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
