// Package pydict normalises a Python dict literal (single-quoted
// strings) into valid JSON, the shape Functionary's recipient-based
// argument blobs render in (spec §4.I).
package pydict

import "strings"

type quoteState int

const (
	outside quoteState = iota
	inSingle
	inDouble
)

// NormalizeToJSON rewrites a Python dict/list literal into JSON:
// outer single quotes become double quotes; inside a single-quoted
// string being converted, \' becomes ' and an unescaped " becomes \";
// inside an already-double-quoted string, escapes pass through
// unchanged.
func NormalizeToJSON(s string) string {
	var b strings.Builder
	state := outside
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch state {
		case outside:
			if c == '\'' {
				state = inSingle
				b.WriteByte('"')
				continue
			}
			if c == '"' {
				state = inDouble
				b.WriteByte(c)
				continue
			}
			b.WriteByte(c)

		case inSingle:
			if escaped {
				escaped = false
				if c == '\'' {
					b.WriteByte('\'')
				} else {
					b.WriteByte('\\')
					b.WriteByte(c)
				}
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '\'' {
				state = outside
				b.WriteByte('"')
				continue
			}
			if c == '"' {
				b.WriteString(`\"`)
				continue
			}
			b.WriteByte(c)

		case inDouble:
			if escaped {
				escaped = false
				b.WriteByte('\\')
				b.WriteByte(c)
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = outside
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

// LooksLikeContainer reports whether a value text begins a JSON/Python
// container (object or array), the condition spec §4.I gates
// normalisation on: only a recognised potential container is rewritten
// before JSON parsing.
func LooksLikeContainer(valueText string) bool {
	t := strings.TrimSpace(valueText)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}
