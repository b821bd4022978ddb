// Package index manages the vector index over processed documents:
// schema creation, per-document upserts, and KNN search.
package index

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/docindex/internal/db"
	"github.com/kailas-cloud/docindex/internal/domain"
)

const keyPrefix = "idx:doc:"

// store is the consumer interface for the vector index (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Config describes the index schema parameters.
type Config struct {
	Name        string
	Dimensions  int
	M           int
	EFConstruct int
}

// Repo implements usecase/ingest.VectorIndex and usecase/query.Searcher.
type Repo struct {
	store store
	cfg   Config
}

// New creates a vector index repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// Ensure creates the index if it does not exist yet. Safe to call on
// every startup.
func (r *Repo) Ensure(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.cfg.Name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        r.cfg.Name,
		StorageType: db.StorageHash,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "docId", Type: db.IndexFieldTag},
			{Name: "title", Type: db.IndexFieldText},
			{Name: "summary", Type: db.IndexFieldText},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorDim:         r.cfg.Dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.cfg.M,
				VectorEFConstruct: r.cfg.EFConstruct,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Concurrent startup may have created it in between.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", r.cfg.Name, err)
	}
	return nil
}

// Upsert writes the index entry for doc.DocID, replacing any previous
// vector and fields in place.
func (r *Repo) Upsert(ctx context.Context, doc *domain.IndexedDocument) error {
	if len(doc.Vector) != r.cfg.Dimensions {
		return fmt.Errorf("vector has %d dimensions, index expects %d", len(doc.Vector), r.cfg.Dimensions)
	}
	key := keyPrefix + doc.DocID
	fields := map[string]string{
		"docId":   doc.DocID,
		"title":   doc.Title,
		"summary": doc.Summary,
		"tags":    strings.Join(doc.Tags, ","),
		"vector":  string(vectorToBytes(doc.Vector)),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Search returns the k nearest documents to the query vector, most
// similar first.
func (r *Repo) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.Name,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"docId", "title", "summary", "tags"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search %s: %w", r.cfg.Name, err)
	}

	out := make([]domain.SearchResult, 0, len(res.Entries))
	for _, e := range res.Entries {
		docID := e.Fields["docId"]
		if docID == "" {
			docID = strings.TrimPrefix(e.Key, keyPrefix)
		}
		out = append(out, domain.SearchResult{
			Score:   e.Score,
			DocID:   docID,
			Title:   e.Fields["title"],
			Summary: e.Fields["summary"],
			Tags:    splitTags(e.Fields["tags"]),
		})
	}
	return out, nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// vectorToBytes encodes float32s little-endian as FT.SEARCH expects for
// BLOB vector fields.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
