// Package ingest runs storage notifications through the document
// processing pipeline: fetch, extract, embed, persist, index.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/domain"
	"github.com/kailas-cloud/docindex/internal/logger"
	"github.com/kailas-cloud/docindex/internal/metrics"
)

// Pipeline stage names reported in logs and metrics.
const (
	stageNormalize = "normalize"
	stageFetch     = "fetch"
	stageExtract   = "extract"
	stageEmbed     = "embed"
	stageRecord    = "record"
	stageIndex     = "index"
	stageOutput    = "output"
	stagePanic     = "panic"
)

// BatchResult summarizes one batch of notifications.
type BatchResult struct {
	Processed int
	Failed    int
}

// Service handles document ingestion. One record failing never stops
// the rest of the batch.
type Service struct {
	blobs           BlobStore
	extractor       Extractor
	embedder        Embedder
	docs            DocumentStore
	index           VectorIndex
	processedBucket string
}

// New creates an ingest service writing derived outputs to
// processedBucket.
func New(
	blobs BlobStore, extractor Extractor, embedder Embedder,
	docs DocumentStore, index VectorIndex, processedBucket string,
) *Service {
	return &Service{
		blobs:           blobs,
		extractor:       extractor,
		embedder:        embedder,
		docs:            docs,
		index:           index,
		processedBucket: processedBucket,
	}
}

// ProcessBatch runs every notification body through the pipeline and
// reports how many records succeeded and failed.
func (s *Service) ProcessBatch(ctx context.Context, bodies []json.RawMessage) BatchResult {
	log := logger.FromContext(ctx)

	var res BatchResult
	for i, body := range bodies {
		err := s.processRecord(ctx, body)
		if err == nil {
			res.Processed++
			metrics.IngestRecordsTotal.WithLabelValues("processed").Inc()
			continue
		}

		res.Failed++
		metrics.IngestRecordsTotal.WithLabelValues("failed").Inc()

		stage := stagePanic
		var se *stageError
		if errors.As(err, &se) {
			stage = se.stage
		}
		metrics.IngestStageFailuresTotal.WithLabelValues(stage).Inc()
		log.Error("ingest record failed",
			zap.Int("record", i),
			zap.String("stage", stage),
			zap.Error(err),
		)
	}

	log.Info("ingest batch done",
		zap.Int("processed", res.Processed),
		zap.Int("failed", res.Failed),
	)
	return res
}

// processRecord isolates a single record, converting panics into
// ordinary failures.
func (s *Service) processRecord(ctx context.Context, body json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{stage: stagePanic, err: fmt.Errorf("recovered: %v", r)}
		}
	}()
	return s.process(ctx, body)
}

func (s *Service) process(ctx context.Context, body json.RawMessage) error {
	event, err := domain.ParseStorageEvent(body)
	if err != nil {
		return &stageError{stage: stageNormalize, err: err}
	}

	log := logger.FromContext(ctx).With(
		zap.String("bucket", event.Bucket),
		zap.String("key", event.Key),
	)

	data, err := s.blobs.Get(ctx, event.Bucket, event.Key)
	if err != nil {
		return &stageError{stage: stageFetch, err: err}
	}
	if !utf8.Valid(data) {
		return &stageError{
			stage: stageFetch,
			err:   fmt.Errorf("%w: %s", domain.ErrNotText, event.DocID()),
		}
	}
	text := string(data)

	rec := domain.DocumentRecord{
		DocID:  event.DocID(),
		Bucket: event.Bucket,
		Key:    event.Key,
		Status: domain.StatusProcessed,
	}

	meta, err := s.extractor.Extract(ctx, text)
	if err != nil {
		log.Warn("metadata extraction failed", zap.Error(err))
		return s.failRecord(ctx, rec, stageExtract, err)
	}
	rec.Metadata = meta

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.Warn("embedding failed", zap.Error(err))
		return s.failRecord(ctx, rec, stageEmbed, err)
	}

	if err := s.docs.Put(ctx, &rec); err != nil {
		return &stageError{stage: stageRecord, err: err}
	}

	indexed := domain.IndexedDocument{
		DocID:   rec.DocID,
		Vector:  vector,
		Title:   meta.Title,
		Summary: meta.Summary,
		Tags:    meta.Tags,
	}
	if err := s.index.Upsert(ctx, &indexed); err != nil {
		return &stageError{stage: stageIndex, err: err}
	}

	// The derived output carries only the extracted fields; the full
	// record stays in the document store.
	out, err := json.Marshal(&rec.Metadata)
	if err != nil {
		return &stageError{stage: stageOutput, err: err}
	}
	if err := s.blobs.Put(ctx, s.processedBucket, event.Key+".json", out); err != nil {
		return &stageError{stage: stageOutput, err: err}
	}

	log.Info("document processed", zap.String("docId", rec.DocID))
	return nil
}

// failRecord persists a FAILED record so reprocessing stays visible,
// keeping whatever metadata was extracted before the failure.
func (s *Service) failRecord(ctx context.Context, rec domain.DocumentRecord, stage string, cause error) error {
	rec.Status = domain.StatusFailed
	if err := s.docs.Put(ctx, &rec); err != nil {
		return &stageError{stage: stageRecord, err: err}
	}
	return &stageError{stage: stage, err: cause}
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }

func (e *stageError) Unwrap() error { return e.err }
