package query

import (
	"context"

	"github.com/kailas-cloud/docindex/internal/domain"
)

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs KNN search over the document index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
}
