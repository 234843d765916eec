package document

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/formharvest/internal/glyph"
)

// PDFParser reads each text row of each page as one paragraph, keeping the
// font of every glyph. The file is
// parsed with pdfcpu in relaxed mode first so that broken files fail with a
// readable error instead of a parser panic.
type PDFParser struct {
	validate bool
}

// NewPDFParser creates a PDF parser that validates before reading
func NewPDFParser() *PDFParser {
	return &PDFParser{validate: true}
}

// Parse implements Parser
func (p *PDFParser) Parse(r io.ReaderAt, size int64) (paragraphs []glyph.Paragraph, err error) {
	if p.validate {
		if err := validatePDF(r, size); err != nil {
			return nil, err
		}
	}

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	// ledongthuc/pdf panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			paragraphs = nil
			err = fmt.Errorf("%w: panic while reading PDF text: %v", ErrMalformed, rec)
		}
	}()

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		paragraphs = append(paragraphs, textRows(page.Content().Text)...)
	}

	return paragraphs, nil
}

// textRows groups positioned glyphs into rows, top of the page first, and
// reads each row left to right. A horizontal gap wider than a fraction of the
// font size becomes a space.
func textRows(texts []pdf.Text) []glyph.Paragraph {
	items := make([]pdf.Text, 0, len(texts))
	for _, text := range texts {
		if text.S != "" {
			items = append(items, text)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Y > items[j].Y })

	var rows [][]pdf.Text
	for _, text := range items {
		if n := len(rows); n > 0 && sameRow(rows[n-1][0], text) {
			rows[n-1] = append(rows[n-1], text)
			continue
		}
		rows = append(rows, []pdf.Text{text})
	}

	paragraphs := make([]glyph.Paragraph, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		para := glyph.Paragraph{Runs: make([]glyph.Run, 0, 4)}
		var end float64
		for i, text := range row {
			if i > 0 && text.X-end > wordGap*fontSize(text) {
				last := &para.Runs[len(para.Runs)-1]
				if !strings.HasSuffix(last.Text, " ") && !strings.HasPrefix(text.S, " ") {
					last.Text += " "
				}
			}
			para.Runs = appendRun(para.Runs, glyph.Run{Text: text.S, Font: CanonicalFontName(text.Font)})
			end = math.Max(end, text.X+text.W)
		}
		paragraphs = append(paragraphs, para)
	}
	return paragraphs
}

const (
	rowTolerance = 0.4
	wordGap      = 0.25
	fallbackSize = 10.0
)

func sameRow(a, b pdf.Text) bool {
	return math.Abs(a.Y-b.Y) <= rowTolerance*math.Max(fontSize(a), fontSize(b))
}

func fontSize(text pdf.Text) float64 {
	if text.FontSize > 0 {
		return text.FontSize
	}
	return fallbackSize
}

// appendRun merges consecutive items in the same font into one run
func appendRun(runs []glyph.Run, run glyph.Run) []glyph.Run {
	if n := len(runs); n > 0 && runs[n-1].Font == run.Font {
		runs[n-1].Text += run.Text
		return runs
	}
	return append(runs, run)
}

func validatePDF(r io.ReaderAt, size int64) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(io.NewSectionReader(r, 0, size), conf)
	if err != nil {
		return fmt.Errorf("%w: invalid PDF: %v", ErrMalformed, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("%w: invalid page tree: %v", ErrMalformed, err)
	}
	return nil
}

// CanonicalFontName maps an embedded PDF font name to the name a word
// processor uses, so "ABCDEF+Wingdings2-Regular" matches "Wingdings 2".
func CanonicalFontName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "#20", " ")
	if i := strings.IndexAny(name, "-,"); i > 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)

	switch strings.ToLower(strings.ReplaceAll(name, " ", "")) {
	case "wingdings":
		return glyph.FontWingdings
	case "wingdings2":
		return glyph.FontWingdings2
	case "wingdings3":
		return glyph.FontWingdings3
	}
	return name
}
