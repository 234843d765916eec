package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a3tai/formharvest/internal/glyph"
)

// WordprocessingML main namespace
const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const docxBodyPart = "word/document.xml"

// DOCXParser reads body paragraphs and their runs from word/document.xml.
// Paragraphs inside text boxes are never read; paragraphs inside tables are
// read only when IncludeTables is set.
type DOCXParser struct {
	IncludeTables bool
}

// NewDOCXParser creates a DOCX parser
func NewDOCXParser(includeTables bool) *DOCXParser {
	return &DOCXParser{IncludeTables: includeTables}
}

// Parse implements Parser
func (p *DOCXParser) Parse(r io.ReaderAt, size int64) ([]glyph.Paragraph, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return nil, fmt.Errorf("%w: missing required file: %s", ErrMalformed, docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := p.parseBody(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrMalformed, docxBodyPart, err)
	}
	return paragraphs, nil
}

// bodyWalker tracks where the decoder is inside document.xml
type bodyWalker struct {
	includeTables bool

	tableDepth int
	skipDepth  int // inside a text box
	inRunProps bool
	inText     bool

	paragraph *glyph.Paragraph
	run       *glyph.Run
	out       []glyph.Paragraph
}

func (p *DOCXParser) parseBody(r io.Reader) ([]glyph.Paragraph, error) {
	w := &bodyWalker{includeTables: p.IncludeTables}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t)
		case xml.EndElement:
			w.end(t)
		case xml.CharData:
			if w.inText && w.run != nil && w.collecting() {
				w.run.Text += string(t)
			}
		}
	}

	return w.out, nil
}

func (w *bodyWalker) collecting() bool {
	if w.skipDepth > 0 {
		return false
	}
	return w.tableDepth == 0 || w.includeTables
}

func (w *bodyWalker) start(el xml.StartElement) {
	if el.Name.Space != nsW {
		return
	}

	switch el.Name.Local {
	case "txbxContent":
		w.skipDepth++
		return
	case "tbl":
		w.tableDepth++
		return
	}
	if !w.collecting() {
		return
	}

	switch el.Name.Local {
	case "p":
		w.paragraph = &glyph.Paragraph{}
	case "r":
		if w.paragraph != nil {
			w.run = &glyph.Run{}
		}
	case "rPr":
		w.inRunProps = w.run != nil
	case "rFonts":
		if w.inRunProps && w.run != nil {
			w.run.Font = runFont(el.Attr)
		}
	case "t":
		w.inText = w.run != nil
	case "tab":
		w.appendText("\t")
	case "br", "cr":
		w.appendText("\n")
	case "sym":
		w.appendSymbol(el.Attr)
	}
}

func (w *bodyWalker) end(el xml.EndElement) {
	if el.Name.Space != nsW {
		return
	}

	switch el.Name.Local {
	case "txbxContent":
		w.skipDepth--
		return
	case "tbl":
		w.tableDepth--
		return
	}
	if !w.collecting() {
		return
	}

	switch el.Name.Local {
	case "p":
		if w.paragraph != nil {
			w.out = append(w.out, *w.paragraph)
			w.paragraph = nil
		}
	case "r":
		if w.run != nil && w.paragraph != nil {
			if w.run.Text != "" {
				w.paragraph.Runs = append(w.paragraph.Runs, *w.run)
			}
			w.run = nil
		}
	case "rPr":
		w.inRunProps = false
	case "t":
		w.inText = false
	}
}

func (w *bodyWalker) appendText(s string) {
	if w.run != nil && !w.inRunProps {
		w.run.Text += s
	}
}

// appendSymbol flushes the current run and adds the symbol as its own run,
// set in the font named on the sym element.
func (w *bodyWalker) appendSymbol(attrs []xml.Attr) {
	if w.run == nil || w.paragraph == nil {
		return
	}
	var font, char string
	for _, a := range attrs {
		switch a.Name.Local {
		case "font":
			font = a.Value
		case "char":
			char = a.Value
		}
	}
	code, err := strconv.ParseUint(char, 16, 32)
	if err != nil || code == 0 {
		return
	}

	if w.run.Text != "" {
		w.paragraph.Runs = append(w.paragraph.Runs, *w.run)
	}
	w.paragraph.Runs = append(w.paragraph.Runs, glyph.Run{Text: string(rune(code)), Font: font})
	w.run = &glyph.Run{Font: w.run.Font}
}

// runFont picks the run's font the way Word reports it for Latin text,
// falling back to the other script slots when ascii is unset.
func runFont(attrs []xml.Attr) string {
	fonts := make(map[string]string, len(attrs))
	for _, a := range attrs {
		fonts[a.Name.Local] = strings.TrimSpace(a.Value)
	}
	for _, slot := range []string{"ascii", "hAnsi", "cs", "eastAsia"} {
		if f := fonts[slot]; f != "" {
			return f
		}
	}
	return ""
}
