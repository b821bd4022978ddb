// Package query answers semantic search requests: validate, embed,
// KNN lookup.
package query

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docindex/internal/domain"
)

// maxQueryLength matches the embedding input limit.
const maxQueryLength = 8000

// Service handles semantic search queries.
type Service struct {
	embedder Embedder
	searcher Searcher
	topK     int
}

// New creates a query service returning up to topK results per search.
func New(embedder Embedder, searcher Searcher, topK int) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{embedder: embedder, searcher: searcher, topK: topK}
}

// Search returns the documents most similar to the query text, most
// similar first. Invalid queries fail before any model call.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(q); n > maxQueryLength {
		return nil, fmt.Errorf("%w: query is %d characters, max %d", domain.ErrInvalidQuery, n, maxQueryLength)
	}

	vector, err := s.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.searcher.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return results, nil
}
