// Package document persists per-document processing records as JSON
// values keyed by docId.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/docindex/internal/db"
	"github.com/kailas-cloud/docindex/internal/domain"
)

// store is the consumer interface for document records (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements usecase/ingest.DocumentStore.
type Repo struct {
	store store
}

// New creates a document record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Put creates or replaces the record for rec.DocID.
func (r *Repo) Put(ctx context.Context, rec *domain.DocumentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := docKey(rec.DocID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns the record for docID.
func (r *Repo) Get(ctx context.Context, docID string) (domain.DocumentRecord, error) {
	key := docKey(docID)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.DocumentRecord{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
		}
		return domain.DocumentRecord{}, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with a $ path wraps the value in an array.
	var recs []domain.DocumentRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	if len(recs) == 0 {
		return domain.DocumentRecord{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, docID)
	}
	return recs[0], nil
}

func docKey(docID string) string {
	return "doc:" + docID
}
