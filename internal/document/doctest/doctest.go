// Package doctest builds small Word and PDF documents for tests.
package doctest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`
	rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:wps="http://schemas.microsoft.com/office/word/2010/wordprocessingShape">
  <w:body>`
	documentTail = `</w:body>
</w:document>`
)

// DOCX returns a minimal DOCX archive whose body holds the given XML
func DOCX(t testing.TB, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, part := range []struct{ name, data string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rels},
		{"word/document.xml", documentHead + body + documentTail},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", part.name, err)
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			t.Fatalf("failed to write %s: %v", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// Lines returns a body with one paragraph of plain text per line
func Lines(lines ...string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(Para(Run(line)))
	}
	return b.String()
}

// Para wraps runs in a paragraph
func Para(runs ...string) string {
	return "<w:p>" + strings.Join(runs, "") + "</w:p>"
}

// Run is a run of text in the default font
func Run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + escape(text) + `</w:t></w:r>`
}

// FontRun is a run of text in the named font
func FontRun(font, text string) string {
	return fmt.Sprintf(`<w:r><w:rPr><w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s"/></w:rPr><w:t xml:space="preserve">%[2]s</w:t></w:r>`,
		escape(font), escape(text))
}

// Sym is a run holding one symbol element, char being its hex code
func Sym(font, char string) string {
	return fmt.Sprintf(`<w:r><w:sym w:font="%s" w:char="%s"/></w:r>`, escape(font), escape(char))
}

// PDF returns a one page PDF drawing the given content stream. Font /F1 is
// Helvetica and /F2 a subset Wingdings 2; both use WinAnsiEncoding and give
// every glyph a width of 500 units.
func PDF(t testing.TB, content string) []byte {
	t.Helper()

	widths := "[" + strings.TrimSpace(strings.Repeat("500 ", 256)) + "]"
	font := func(base string) string {
		return fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding /FirstChar 0 /LastChar 255 /Widths %s >>",
			base, widths)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R /F2 6 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		font("Helvetica"),
		font("ABCDEF+Wingdings2-Regular"),
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
