// Package redis implements the db.Store facade via rueidis for Redis 8+.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docindex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store via rueidis.
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// HSet sets hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// JSONSet stores a JSON document at the given key and path.
func (s *Store) JSONSet(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONSet, Err: err}
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

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
