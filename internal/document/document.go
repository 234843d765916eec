// Package document turns form files into paragraphs of font-tagged runs.
//
// Word documents are read straight from their XML parts so that the font of
// every run, including symbol-font tick marks, is preserved. PDF pages are
// read row by row with the font reported for each text item.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/a3tai/formharvest/internal/glyph"
)

// Format identifies a supported document container
type Format string

const (
	FormatDOCX    Format = "docx"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"
	mimeZip  = "application/zip"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither DOCX nor PDF
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrMalformed is returned when a container opens but its content cannot be parsed
	ErrMalformed = errors.New("malformed document")
)

// Document is the paragraph structure of one source file
type Document struct {
	Path       string
	Format     Format
	Paragraphs []glyph.Paragraph
}

// Parser reads paragraphs from one document container format
type Parser interface {
	Parse(r io.ReaderAt, size int64) ([]glyph.Paragraph, error)
}

// Loader opens files on a filesystem and dispatches on their detected format
type Loader struct {
	fs      afero.Fs
	parsers map[Format]Parser
}

// LoaderOption customizes a Loader
type LoaderOption func(*Loader)

// WithParser overrides the parser used for a format
func WithParser(format Format, p Parser) LoaderOption {
	return func(l *Loader) {
		l.parsers[format] = p
	}
}

// NewLoader creates a loader with the DOCX and PDF parsers registered
func NewLoader(fs afero.Fs, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs: fs,
		parsers: map[Format]Parser{
			FormatDOCX: NewDOCXParser(false),
			FormatPDF:  NewPDFParser(),
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads a document's paragraphs. The context is checked before the file
// is opened; parsing itself runs to completion.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}

	format, err := DetectFormat(f, path)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("cannot rewind %s: %w", path, err)
	}

	parser, ok := l.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	paragraphs, err := parser.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read %s as %s: %w", filepath.Base(path), format, err)
	}

	return &Document{
		Path:       path,
		Format:     format,
		Paragraphs: paragraphs,
	}, nil
}

// DetectFormat sniffs the content type, falling back to the file extension
// for generic zip archives.
func DetectFormat(r io.Reader, path string) (Format, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return FormatUnknown, fmt.Errorf("cannot detect type of %s: %w", path, err)
	}

	for m := mime; m != nil; m = m.Parent() {
		switch {
		case m.Is(mimePDF):
			return FormatPDF, nil
		case m.Is(mimeDOCX):
			return FormatDOCX, nil
		case m.Is(mimeZip):
			if strings.EqualFold(filepath.Ext(path), ".docx") {
				return FormatDOCX, nil
			}
		}
	}

	return FormatUnknown, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filepath.Base(path), mime.String())
}
