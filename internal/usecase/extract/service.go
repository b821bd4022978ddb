// Package extract turns raw document text into structured metadata via
// the completion model, tolerating conversational wrapping around the
// JSON payload in model responses.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docindex/internal/domain"
)

const promptTemplate = `Extract the following fields from the text below as JSON:
- title
- summary
- tags (list of strings)
- date

Respond with a single JSON object and nothing else.

Text:
%s`

// Service extracts structured metadata from document text.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates an extraction service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// Extract asks the completion model for title/summary/tags/date. A failed
// model call surfaces as domain.ErrExtractionFailed. Malformed output is
// not a failure: a response without a parseable JSON object degrades to
// an empty Metadata.
func (s *Service) Extract(ctx context.Context, text string) (domain.Metadata, error) {
	prompt := fmt.Sprintf(promptTemplate, text)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	return s.parseResponse(raw), nil
}

// parseResponse pulls the span between the first '{' and the last '}'
// out of a possibly chatty model response and parses it. No brace pair,
// or an unparseable span, degrades to an empty record.
func (s *Service) parseResponse(raw string) domain.Metadata {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		s.logger.Debug("no JSON object in model response", zap.Int("response_len", len(raw)))
		return domain.Metadata{}
	}

	var meta domain.Metadata
	if err := json.Unmarshal([]byte(raw[start:end+1]), &meta); err != nil {
		s.logger.Warn("unparseable JSON in model response", zap.Error(err))
		return domain.Metadata{}
	}
	return meta
}
