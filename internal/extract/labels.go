package extract

import (
	"regexp"
	"sort"
)

// LabelMatch is one occurrence of a label and its separator within a line.
// Start is the offset of the label text; End is just past the separator and
// any following spaces, where the value begins.
type LabelMatch struct {
	Label string
	Start int
	End   int
}

// labelMatcher finds all label occurrences in a line
type labelMatcher struct {
	labels   []string
	patterns []*regexp.Regexp
}

func newLabelMatcher(labels []string) *labelMatcher {
	m := &labelMatcher{
		labels:   labels,
		patterns: make([]*regexp.Regexp, len(labels)),
	}
	for i, label := range labels {
		m.patterns[i] = regexp.MustCompile(regexp.QuoteMeta(label) + `[ ]*[:：][ ]*`)
	}
	return m
}

// Match returns every occurrence of every label in the line, ordered by
// start offset. Labels are not required to be distinct substrings, so
// occurrences of different labels may overlap; all of them are reported.
func (m *labelMatcher) Match(line string) []LabelMatch {
	var matches []LabelMatch
	for i, pattern := range m.patterns {
		for _, loc := range pattern.FindAllStringIndex(line, -1) {
			matches = append(matches, LabelMatch{
				Label: m.labels[i],
				Start: loc[0],
				End:   loc[1],
			})
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Start < matches[b].Start
	})
	return matches
}

// valueSpan returns the raw text attributed to matches[i]: from its end to the
// next match's start, or to the end of the line for the last match.
func valueSpan(line string, matches []LabelMatch, i int) string {
	start := matches[i].End
	end := len(line)
	if i+1 < len(matches) {
		end = matches[i+1].Start
	}
	if end < start {
		// overlapping labels, the next one begins inside this separator
		return ""
	}
	return line[start:end]
}
