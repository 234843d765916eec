// Package extract pulls "label: value" answers out of normalized form text.
//
// Each line is searched for every configured label followed by a colon
// (half-width or full-width). The text between one label and the next on the
// same line is that label's answer. Answers that contain checkbox markers are
// reduced to the ticked options. A document yields one Record; when a label
// occurs several times the last occurrence wins.
package extract

import "strings"

// Extractor resolves configured labels in document text. It is immutable once
// built and safe to reuse across documents.
type Extractor struct {
	labels  []string
	matcher *labelMatcher
	markers Markers
}

// NewExtractor builds an extractor for the ordered label list
func NewExtractor(labels []string, markers Markers) *Extractor {
	kept := make([]string, len(labels))
	copy(kept, labels)
	return &Extractor{
		labels:  kept,
		matcher: newLabelMatcher(kept),
		markers: markers,
	}
}

// Labels returns the configured labels in column order
func (e *Extractor) Labels() []string {
	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out
}

// Assignment is one resolved answer found on a line, in document order
type Assignment struct {
	Line  int
	Match LabelMatch
	Raw   string
	Value string
}

// ExtractLine resolves all label occurrences of a single line
func (e *Extractor) ExtractLine(line string) []Assignment {
	matches := e.matcher.Match(line)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Assignment, 0, len(matches))
	for i, match := range matches {
		raw := valueSpan(line, matches, i)
		out = append(out, Assignment{
			Match: match,
			Raw:   raw,
			Value: e.markers.ResolveSpan(raw),
		})
	}
	return out
}

// Trace returns every assignment made while extracting the text, before
// later occurrences overwrite earlier ones.
func (e *Extractor) Trace(text string) []Assignment {
	var out []Assignment
	for idx, line := range strings.Split(NormalizeDates(text), "\n") {
		for _, a := range e.ExtractLine(line) {
			a.Line = idx + 1
			out = append(out, a)
		}
	}
	return out
}

// Extract produces the record for one document's text. Dates are normalized
// across the whole text first, then each line is matched independently.
func (e *Extractor) Extract(text string) Record {
	record := NewRecord(e.labels)
	for _, a := range e.Trace(text) {
		record.set(a.Match.Label, a.Value)
	}
	return record
}
