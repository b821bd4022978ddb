package db

import "errors"

// StorageType defines the document storage backend for FT indexes.
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldTag is a tag field.
	IndexFieldTag IndexFieldType = iota
	// IndexFieldText is a text field.
	IndexFieldText
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name string
	Type IndexFieldType

	// TAG options
	TagSeparator string

	// VECTOR options (HNSW)
	VectorDim         int
	VectorDistance    DistanceMetric
	VectorM           int // max edges per node (default 16)
	VectorEFConstruct int // build-time dynamic list size (default 200)
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}
	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return errors.New("field name is required")
		}
		if seen[f.Name] {
			return errors.New("duplicate field name: " + f.Name)
		}
		seen[f.Name] = true
		if f.Type == IndexFieldVector && f.VectorDim <= 0 {
			return errors.New("vector field requires positive DIM")
		}
	}
	return nil
}
