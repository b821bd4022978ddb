// Package domain holds the core entities of the ingestion and search
// pipeline: storage events, extracted metadata, persisted document
// records, and search results.
package domain

// Status is the terminal outcome of a single processing attempt.
type Status string

const (
	StatusProcessed Status = "PROCESSED"
	StatusFailed    Status = "FAILED"
)

// Metadata is the structured record extracted from a document by the
// completion model. All fields are optional; a fully empty Metadata is a
// valid outcome for malformed model output.
type Metadata struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Date    string   `json:"date,omitempty"`
}

// IsEmpty reports whether no fields were extracted.
func (m Metadata) IsEmpty() bool {
	return m.Title == "" && m.Summary == "" && len(m.Tags) == 0 && m.Date == ""
}

// DocumentRecord is the persisted per-document state. DocID is the
// idempotency key: reprocessing the same blob overwrites the record
// rather than duplicating it.
type DocumentRecord struct {
	DocID    string   `json:"docId"`
	Bucket   string   `json:"bucket"`
	Key      string   `json:"key"`
	Status   Status   `json:"status"`
	Metadata Metadata `json:"metadata"`
}

// IndexedDocument is the vector-index entry for a processed document.
// One entry per DocID; re-indexing replaces in place.
type IndexedDocument struct {
	DocID   string
	Vector  []float32
	Title   string
	Summary string
	Tags    []string
}

// SearchResult is one KNN hit, derived and never persisted.
type SearchResult struct {
	Score   float64  `json:"score"`
	DocID   string   `json:"docId"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}
