package domain

import "errors"

var (
	// ErrUnrecognizedEvent signals a storage notification that matches neither
	// supported wire shape.
	ErrUnrecognizedEvent = errors.New("unrecognized event shape")
	// ErrNotText signals blob content that is not valid UTF-8 text.
	ErrNotText = errors.New("blob content is not text")
	// ErrModelUnavailable signals a model call that failed fatally or exhausted
	// its retry budget. Callers treat it as a first-class outcome, not a panic path.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrExtractionFailed signals that structured extraction could not run.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrInvalidQuery signals a search query rejected by validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrDocumentNotFound signals a missing document record.
	ErrDocumentNotFound = errors.New("document not found")
)
