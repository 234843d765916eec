// Package harvest ties document reading, glyph normalization and field
// extraction together and drives batches over the source folder.
package harvest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/config"
	"github.com/a3tai/formharvest/internal/document"
	"github.com/a3tai/formharvest/internal/extract"
	"github.com/a3tai/formharvest/internal/glyph"
	"github.com/a3tai/formharvest/internal/logger"
)

// Service extracts a record from one document
type Service struct {
	loader     *document.Loader
	validator  *document.Validator
	normalizer *glyph.Normalizer
	extractor  *extract.Extractor
	log        logger.Logger
}

// Inspection is the detailed result of reading one document
type Inspection struct {
	Path        string
	Format      document.Format
	Text        string
	Assignments []extract.Assignment
	Record      extract.Record
}

// NewService creates a service from the loaded configuration
func NewService(fs afero.Fs, cfg *config.Config, log logger.Logger) *Service {
	return &Service{
		loader:     document.NewLoader(fs),
		validator:  document.NewValidator(fs, cfg.MaxFileSize),
		normalizer: glyph.NewNormalizer(cfg.Symbols.Tables),
		extractor:  extract.NewExtractor(cfg.Keywords, cfg.Symbols.Markers),
		log:        log,
	}
}

// Labels returns the configured labels in column order
func (s *Service) Labels() []string {
	return s.extractor.Labels()
}

// ExtractFile validates, reads, normalizes and extracts one document
func (s *Service) ExtractFile(ctx context.Context, path string) (extract.Record, error) {
	insp, err := s.Inspect(ctx, path)
	if err != nil {
		return extract.Record{}, err
	}
	return insp.Record, nil
}

// Inspect is ExtractFile that also returns the normalized text and every
// label assignment made, including those later overwritten.
func (s *Service) Inspect(ctx context.Context, path string) (*Inspection, error) {
	if err := s.validator.ValidateFile(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
	}

	text := s.normalizer.Normalize(doc.Paragraphs)
	s.log.Debug("document text", "file", filepath.Base(path), "paragraphs", len(doc.Paragraphs), "text", text)

	return &Inspection{
		Path:        path,
		Format:      doc.Format,
		Text:        extract.NormalizeDates(text),
		Assignments: s.extractor.Trace(text),
		Record:      s.extractor.Extract(text),
	}, nil
}
