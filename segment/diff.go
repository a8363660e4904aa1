package segment

import "strings"

// DiffSplit is the four-way split of two strings A and B into their
// longest common prefix, longest common suffix, and the residual on each
// side: A = Prefix+Left+Suffix, B = Prefix+Right+Suffix.
type DiffSplit struct {
	Prefix string
	Left   string
	Right  string
	Suffix string
}

// CalculateDiffSplit computes the DiffSplit between a and b, correcting
// for tag boundaries that land mid-marker: if the prefix ends with an
// unclosed '<' or '[' and the matching closer shows up in both residuals
// (or in the one that's empty, provided the other has it), the partial
// opener is migrated from the prefix into both residuals. The symmetric
// rule applies to a suffix that begins with an unmatched closer. The
// correction is applied to a fixed point.
func CalculateDiffSplit(a, b string) DiffSplit {
	prefixLen := commonPrefixLen(a, b)
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	suffixLen := 0
	for suffixLen < minLen-prefixLen {
		la := len(a) - 1 - suffixLen
		lb := len(b) - 1 - suffixLen
		if la < prefixLen || lb < prefixLen {
			break
		}
		if a[la] != b[lb] {
			break
		}
		suffixLen++
	}

	result := DiffSplit{
		Prefix: a[:prefixLen],
		Suffix: a[len(a)-suffixLen:],
		Left:   a[prefixLen : len(a)-suffixLen],
		Right:  b[prefixLen : len(b)-suffixLen],
	}

	for {
		prev := result

		// Re-extract any new common suffix between left/right first, so
		// fix_tag_boundaries never has to look past a suffix that still
		// contains matched material.
		extra := commonSuffixLen(result.Left, result.Right)
		if extra > 0 {
			result.Suffix = result.Left[len(result.Left)-extra:] + result.Suffix
			result.Left = result.Left[:len(result.Left)-extra]
			result.Right = result.Right[:len(result.Right)-extra]
		}

		result = fixTagBoundaries(result)

		if result == prev {
			break
		}
		if result.Left == a && result.Right == b {
			break
		}
	}

	return result
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

// fixTagBoundaries moves a partial opener/closer from prefix/suffix into
// both residuals when doing so keeps markers intact on both sides.
func fixTagBoundaries(r DiffSplit) DiffSplit {
	if pos, open, closeCh, ok := findUnclosedBracketAtEnd(r.Prefix); ok {
		leftHas := containsUnopenedClosing(r.Left, open, closeCh)
		rightHas := containsUnopenedClosing(r.Right, open, closeCh)
		suffixHas := containsUnopenedClosing(r.Suffix, open, closeCh)

		leftOK := leftHas || (r.Left == "" && suffixHas)
		rightOK := rightHas || (r.Right == "" && suffixHas)

		if leftOK && rightOK {
			tagPart := r.Prefix[pos:]
			r.Prefix = r.Prefix[:pos]
			r.Left = tagPart + r.Left
			r.Right = tagPart + r.Right
		}
	}

	if end, closeCh, ok := findUnopenedBracketAtStart(r.Suffix); ok {
		open := byte('<')
		if closeCh == ']' {
			open = '['
		}
		leftHas := containsUnclosedOpening(r.Left, open, closeCh)
		rightHas := containsUnclosedOpening(r.Right, open, closeCh)
		prefixHas := containsUnclosedOpening(r.Prefix, open, closeCh)

		leftOK := leftHas || (r.Left == "" && prefixHas)
		rightOK := rightHas || (r.Right == "" && prefixHas)

		if leftOK && rightOK {
			tagPart := r.Suffix[:end]
			r.Suffix = r.Suffix[end:]
			r.Left += tagPart
			r.Right += tagPart
		}
	}

	return r
}

// findUnclosedBracketAtEnd finds the last '<' or '[' in s that has no
// matching closer after it (i.e. s ends mid-marker).
func findUnclosedBracketAtEnd(s string) (pos int, open byte, closeCh byte, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c == '<' || c == '[' {
			wantClose := byte('>')
			if c == '[' {
				wantClose = ']'
			}
			if strings.IndexByte(s[i:], wantClose) == -1 {
				return i, c, wantClose, true
			}
			return 0, 0, 0, false
		}
		if c == '>' || c == ']' {
			return 0, 0, 0, false
		}
	}
	return 0, 0, 0, false
}

// findUnopenedBracketAtStart finds a leading '>' or ']' in s with no
// matching opener before it within s (i.e. s begins mid-close).
func findUnopenedBracketAtStart(s string) (end int, closeCh byte, ok bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '>' || c == ']' {
			wantOpen := byte('<')
			if c == ']' {
				wantOpen = '['
			}
			if strings.IndexByte(s[:i], wantOpen) == -1 {
				return i + 1, c, true
			}
			return 0, 0, false
		}
		if c == '<' || c == '[' {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func containsUnopenedClosing(s string, open, closeCh byte) bool {
	idx := strings.IndexByte(s, closeCh)
	if idx == -1 {
		return false
	}
	return strings.IndexByte(s[:idx], open) == -1
}

func containsUnclosedOpening(s string, open, closeCh byte) bool {
	idx := strings.LastIndexByte(s, open)
	if idx == -1 {
		return false
	}
	return strings.IndexByte(s[idx:], closeCh) == -1
}

// UntilCommonPrefix returns the slice of full up to (not including) the
// first occurrence of the common prefix of a and b. It returns "" if a
// and b share no common prefix, or if that prefix never occurs in full.
func UntilCommonPrefix(full, a, b string) string {
	n := commonPrefixLen(a, b)
	if n == 0 {
		return ""
	}
	needle := a[:n]
	idx := strings.Index(full, needle)
	if idx == -1 {
		return ""
	}
	return full[:idx]
}

// AfterCommonSuffix returns the slice of full after the first occurrence
// of the common suffix of a and b (mirror of UntilCommonPrefix).
func AfterCommonSuffix(full, a, b string) string {
	n := commonSuffixLen(a, b)
	if n == 0 {
		return ""
	}
	needle := a[len(a)-n:]
	idx := strings.Index(full, needle)
	if idx == -1 {
		return ""
	}
	return full[idx+len(needle):]
}

// FindStringDifference returns the suffix of extended that follows base,
// when extended begins with base; otherwise it falls back to the
// residual of a common-prefix diff split (the "left-over" part of
// extended after the shared prefix with base).
func FindStringDifference(base, extended string) string {
	if strings.HasPrefix(extended, base) {
		return extended[len(base):]
	}
	n := commonPrefixLen(base, extended)
	return extended[n:]
}

// eosTokens lists trailing end-of-sequence markers stripped from
// recovered tail markers, covering both ASCII "<|...|>" conventions and
// fullwidth "<｜...｜>" ones.
var eosTokens = []string{
	"<|eos|>",
	"<|end_of_text|>",
	"<|eot_id|>",
	"<|im_end|>",
	"<|endoftext|>",
	"<｜end▁of▁sentence｜>",
}

// StripEOSToken removes a trailing EOS/end-of-sentence token from s, if
// present, returning the string unmodified otherwise.
func StripEOSToken(s string) string {
	for _, tok := range eosTokens {
		if strings.HasSuffix(s, tok) {
			return s[:len(s)-len(tok)]
		}
	}
	return s
}
