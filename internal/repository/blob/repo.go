// Package blob stores raw document payloads and derived outputs keyed
// by bucket and object key.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docindex/internal/db"
	"github.com/kailas-cloud/docindex/internal/domain"
)

// store is the consumer interface for blob payloads (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/ingest.BlobStore.
type Repo struct {
	store store
}

// New creates a blob repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns the payload stored under bucket/key.
func (r *Repo) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	k := blobKey(bucket, key)
	data, err := r.store.Get(ctx, k)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, domain.DocID(bucket, key))
		}
		return nil, fmt.Errorf("get %s: %w", k, err)
	}
	return data, nil
}

// Put stores a payload under bucket/key, overwriting any previous value.
func (r *Repo) Put(ctx context.Context, bucket, key string, data []byte) error {
	k := blobKey(bucket, key)
	if err := r.store.Set(ctx, k, data); err != nil {
		return fmt.Errorf("set %s: %w", k, err)
	}
	return nil
}

func blobKey(bucket, key string) string {
	return "blob:" + domain.DocID(bucket, key)
}
