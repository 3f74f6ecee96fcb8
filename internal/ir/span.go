package ir

import "fmt"

// Span is a source range attached to nodes for diagnostics. The core never
// interprets it; it is carried and compared by value.
type Span struct {
	Source    string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// NewSpan builds a span from a source name and start/end coordinates.
func NewSpan(source string, line, column, endLine, endColumn int) Span {
	return Span{
		Source:    source,
		Line:      line,
		Column:    column,
		EndLine:   endLine,
		EndColumn: endColumn,
	}
}

// IsZero reports the "no location" span.
func (s Span) IsZero() bool { return s == Span{} }

func (s Span) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", s.Source, s.Line, s.Column, s.EndLine, s.EndColumn)
}
