package extract

import "strings"

// TokenKind tells whether a choice option is marked or not
type TokenKind int

const (
	TokenEmpty TokenKind = iota
	TokenTick
)

func (k TokenKind) String() string {
	if k == TokenTick {
		return "tick"
	}
	return "empty"
}

// ChoiceToken is one option inside a value span: a marker and the text that
// follows it up to the next marker. Position is the rune offset of the marker.
type ChoiceToken struct {
	Kind     TokenKind
	Content  string
	Position int
}

// Markers configures which characters denote checked and unchecked options
type Markers struct {
	Ticks    []rune
	EmptyBox rune
}

// DefaultMarkers returns the tick set and empty box used by common forms
func DefaultMarkers() Markers {
	return Markers{
		Ticks:    []rune{'✓', '✔', '☑', '☒', '√'},
		EmptyBox: '☐',
	}
}

func (m Markers) isTick(r rune) bool {
	for _, t := range m.Ticks {
		if r == t {
			return true
		}
	}
	return false
}

func (m Markers) kindOf(r rune) (TokenKind, bool) {
	if r == m.EmptyBox {
		return TokenEmpty, true
	}
	if m.isTick(r) {
		return TokenTick, true
	}
	return 0, false
}

// HasMarker reports whether the span contains any tick or the empty box
func (m Markers) HasMarker(span string) bool {
	return strings.ContainsFunc(span, func(r rune) bool {
		_, ok := m.kindOf(r)
		return ok
	})
}

type scanState int

const (
	outsideToken scanState = iota
	insideToken
)

// Tokenize splits a value span into choice tokens. Text before the first
// marker is discarded, and tokens whose content trims to nothing are dropped.
func (m Markers) Tokenize(span string) []ChoiceToken {
	var (
		tokens  []ChoiceToken
		state   = outsideToken
		current ChoiceToken
		content strings.Builder
	)

	emit := func() {
		if c := strings.TrimSpace(content.String()); c != "" {
			current.Content = c
			tokens = append(tokens, current)
		}
		content.Reset()
	}

	for pos, r := range []rune(span) {
		kind, marker := m.kindOf(r)
		switch state {
		case outsideToken:
			if marker {
				current = ChoiceToken{Kind: kind, Position: pos}
				state = insideToken
			}
		case insideToken:
			if marker {
				emit()
				current = ChoiceToken{Kind: kind, Position: pos}
				continue
			}
			content.WriteRune(r)
		}
	}
	if state == insideToken {
		emit()
	}
	return tokens
}

// FromFirstTick drops every token before the first ticked one. It returns nil
// when no token is ticked.
func FromFirstTick(tokens []ChoiceToken) []ChoiceToken {
	for i, tok := range tokens {
		if tok.Kind == TokenTick {
			return tokens[i:]
		}
	}
	return nil
}

// JoinTicked joins the content of ticked tokens with single spaces, keeping
// their left to right order.
func JoinTicked(tokens []ChoiceToken) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenTick {
			parts = append(parts, tok.Content)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Resolve turns a marker-laden span into the answer string. A span with no
// ticked option, or one whose answer would start with a space, resolves to
// the empty string.
func (m Markers) Resolve(span string) string {
	value := JoinTicked(FromFirstTick(m.Tokenize(span)))
	if value == "" || strings.HasPrefix(value, " ") {
		return ""
	}
	return value
}

// ResolveSpan trims the span and applies choice resolution only when it
// contains a marker. Marker-free spans are returned as they are.
func (m Markers) ResolveSpan(span string) string {
	value := strings.TrimSpace(span)
	if !m.HasMarker(value) {
		return value
	}
	return m.Resolve(value)
}
