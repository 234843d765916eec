// Package glyph rewrites symbol-font glyphs into canonical characters.
//
// Word documents draw checkbox and tick marks with private-use code points of
// the Wingdings font family. The same code point means different shapes in
// each font, so substitution is keyed by the font a run is set in. Runs in any
// other font are copied through untouched.
package glyph

import "strings"

// Recognized symbol fonts, spelled the way word processors report them.
const (
	FontWingdings  = "Wingdings"
	FontWingdings2 = "Wingdings 2"
	FontWingdings3 = "Wingdings 3"
)

// Run is a span of text set in a single font
type Run struct {
	Text string
	Font string
}

// Paragraph is one rendered line of a document
type Paragraph struct {
	Runs []Run
}

// Substitution replaces every From in a run with To
type Substitution struct {
	From string
	To   string
}

// Table is an ordered substitution list for one font. Order matters when
// one key's replacement contains another key.
type Table []Substitution

// Tables holds the substitution table of each recognized font
type Tables struct {
	Wingdings  Table
	Wingdings2 Table
	Wingdings3 Table
}

// ForFont returns the table for a font name, or nil when the font is not one
// of the recognized symbol fonts.
func (t Tables) ForFont(font string) Table {
	switch font {
	case FontWingdings:
		return t.Wingdings
	case FontWingdings2:
		return t.Wingdings2
	case FontWingdings3:
		return t.Wingdings3
	default:
		return nil
	}
}

// Len reports the total number of substitutions across all fonts
func (t Tables) Len() int {
	return len(t.Wingdings) + len(t.Wingdings2) + len(t.Wingdings3)
}

// Normalizer applies font-keyed substitutions. It holds no mutable state and
// is safe for concurrent use.
type Normalizer struct {
	tables Tables
}

// NewNormalizer creates a normalizer over the given tables
func NewNormalizer(tables Tables) *Normalizer {
	return &Normalizer{tables: tables}
}

// NormalizeRun returns the run's text with its font's substitutions applied
func (n *Normalizer) NormalizeRun(run Run) string {
	text := run.Text
	for _, sub := range n.tables.ForFont(run.Font) {
		if sub.From == "" {
			continue
		}
		if strings.Contains(text, sub.From) {
			text = strings.ReplaceAll(text, sub.From, sub.To)
		}
	}
	return text
}

// NormalizeParagraph concatenates the normalized runs of one paragraph
func (n *Normalizer) NormalizeParagraph(p Paragraph) string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(n.NormalizeRun(run))
	}
	return b.String()
}

// Lines returns one normalized line per paragraph, in document order
func (n *Normalizer) Lines(paragraphs []Paragraph) []string {
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, n.NormalizeParagraph(p))
	}
	return lines
}

// Normalize returns the whole document text, paragraphs joined by newlines
func (n *Normalizer) Normalize(paragraphs []Paragraph) string {
	return strings.Join(n.Lines(paragraphs), "\n")
}
