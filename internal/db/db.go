// Package db defines the storage facade backing the pipeline: key-value
// blobs, JSON document records, hash-stored indexed documents, and the
// FT vector index with KNN search.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store itself.
type Store interface {
	Pinger
	KVStore
	JSONStore
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations for blob payloads.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// JSONStore provides JSON document operations for metadata records.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// HashStore provides hash writes for index-backed documents. Reads go
// through the FT index, so no hash read is exposed.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides KNN search over an FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation. Entries are ordered
// by ascending vector distance, i.e. descending similarity.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. Score is the similarity score
// derived from the index distance metric.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
