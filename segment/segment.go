// Package segment implements the lowest-level primitives the auto-parser
// synthesizer is built on: splitting a rendered string into TEXT/MARKER
// runs, and diffing two rendered strings down to their common
// prefix/suffix and the residual that differs.
package segment

import "strings"

// Kind tags a Segment as plain text or a marker run.
type Kind int

const (
	// Text is a plain-text run with no marker boundaries.
	Text Kind = iota
	// Marker is a run beginning with '<' or '[' and ending at the
	// matching closer, including wide-character delimiters such as
	// "<|...|>" and "<｜...｜>".
	Marker
)

// Segment is a tagged {kind, value} pair produced by Segmentize.
type Segment struct {
	Kind  Kind
	Value string
}

// IsMarker reports whether the segment is a MARKER segment.
func (s Segment) IsMarker() bool { return s.Kind == Marker }

// Segmentize scans text left-to-right, splitting it into alternating
// TEXT and MARKER segments. A MARKER begins at an unescaped '<' or '['
// and runs to the matching '>' or ']'. Segments concatenate back to the
// original text exactly.
func Segmentize(text string) []Segment {
	var out []Segment
	var textBuf strings.Builder

	flushText := func() {
		if textBuf.Len() > 0 {
			out = append(out, Segment{Kind: Text, Value: textBuf.String()})
			textBuf.Reset()
		}
	}

	runes := []rune(text)
	i := 0
	n := len(runes)
	for i < n {
		c := runes[i]
		if (c == '<' || c == '[') && (i == 0 || runes[i-1] != '\\') {
			closer := '>'
			if c == '[' {
				closer = ']'
			}
			// Find the matching closer; if none exists, the opener is
			// plain text (an unmatched bracket never becomes a marker).
			j := i + 1
			for j < n && runes[j] != closer {
				j++
			}
			if j < n {
				flushText()
				out = append(out, Segment{Kind: Marker, Value: string(runes[i : j+1])})
				i = j + 1
				continue
			}
		}
		textBuf.WriteRune(c)
		i++
	}
	flushText()
	return out
}

// Join concatenates segments back into their original string.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Value)
	}
	return b.String()
}

// FirstMarkerContaining returns the index of the first MARKER segment
// whose Value equals needle exactly, or -1 if none match.
func FirstMarkerContaining(segments []Segment, needle string) int {
	for i, s := range segments {
		if s.Kind == Marker && s.Value == needle {
			return i
		}
	}
	return -1
}

// FirstSegmentContaining returns the index of the first segment (text or
// marker) whose Value contains needle as a substring, or -1 if none do.
func FirstSegmentContaining(segments []Segment, needle string) int {
	if needle == "" {
		return -1
	}
	for i, s := range segments {
		if strings.Contains(s.Value, needle) {
			return i
		}
	}
	return -1
}

// CountMarkers counts MARKER segments in the slice.
func CountMarkers(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Kind == Marker {
			n++
		}
	}
	return n
}
