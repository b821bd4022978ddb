package ingest

import (
	"context"

	"github.com/kailas-cloud/docindex/internal/domain"
)

// BlobStore reads raw document payloads and writes derived outputs.
type BlobStore interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte) error
}

// Extractor pulls structured metadata out of document text.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.Metadata, error)
}

// Embedder vectorizes document text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentStore persists per-document processing records.
type DocumentStore interface {
	Put(ctx context.Context, rec *domain.DocumentRecord) error
}

// VectorIndex stores document vectors for KNN search.
type VectorIndex interface {
	Upsert(ctx context.Context, doc *domain.IndexedDocument) error
}
