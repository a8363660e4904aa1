package peg

import "strings"

// result is a three-valued PEG match outcome: a combinator can fail
// outright, match in full, or be partial — undecided because the
// input ends mid-match and more bytes could still resolve it.
type result int

const (
	rFail result = iota
	rMatch
	rPartial
)

// ASTNode is one tagged leaf produced by a Tag combinator: the matched
// span plus whether that span is still growing.
type ASTNode struct {
	Tag     Tag
	Text    string
	Partial bool
}

// Parse runs program against the full accumulated input and returns
// the tagged AST nodes matched so far. It is designed to be called
// again with a longer input as more bytes arrive (the parser has no
// cross-call state), which keeps the monotonic-streaming invariant
// simple: earlier committed spans are deterministic functions of a
// prefix of input, so they never change meaning as input grows.
func Parse(program *Program, input string) []ASTNode {
	var collected []ASTNode
	m := &matcher{arena: program.Arena}
	_, _ = m.match(program.Root, input, 0, &collected)
	return collected
}

type matcher struct {
	arena *Arena
}

// match attempts arena node idx against input starting at pos,
// appending any Tag-produced AST nodes into collect. It returns the
// position reached and the match result.
func (m *matcher) match(idx int, input string, pos int, collect *[]ASTNode) (int, result) {
	n := m.arena.Nodes[idx]
	switch n.Kind {
	case KLiteral:
		return m.matchLiteral(n.Lit, input, pos)
	case KSeq:
		return m.matchSeq(n.Children, input, pos, collect)
	case KChoice:
		return m.matchChoice(n.Children, input, pos, collect)
	case KOptional:
		return m.matchOptional(n.Child, input, pos, collect)
	case KZeroOrMore:
		return m.matchRepeat(n.Child, input, pos, collect, false)
	case KOneOrMore:
		return m.matchRepeat(n.Child, input, pos, collect, true)
	case KUntil:
		return m.matchUntil(n.Lit, input, pos)
	case KTag:
		return m.matchTag(n.TagName, n.Child, input, pos, collect)
	case KAtomic:
		return m.matchAtomic(n.Child, input, pos, collect)
	case KPeek:
		return m.matchPeek(n.Child, input, pos)
	case KJson:
		return matchJSONValue(input, pos)
	case KSchema:
		if n.IsString {
			return matchSchemaString(n.Lit, input, pos)
		}
		return matchJSONValue(input, pos)
	case KRest:
		return len(input), rMatch
	case KEps:
		return pos, rMatch
	case KPythonDict:
		return matchPythonDictValue(input, pos)
	default:
		return pos, rFail
	}
}

func (m *matcher) matchLiteral(lit, input string, pos int) (int, result) {
	remaining := input[pos:]
	if len(remaining) >= len(lit) {
		if strings.HasPrefix(remaining, lit) {
			return pos + len(lit), rMatch
		}
		return pos, rFail
	}
	if strings.HasPrefix(lit, remaining) {
		return len(input), rPartial
	}
	return pos, rFail
}

func (m *matcher) matchSeq(children []int, input string, pos int, collect *[]ASTNode) (int, result) {
	cur := pos
	for _, c := range children {
		next, res := m.match(c, input, cur, collect)
		switch res {
		case rFail:
			return pos, rFail
		case rPartial:
			return next, rPartial
		}
		cur = next
	}
	return cur, rMatch
}

func (m *matcher) matchChoice(children []int, input string, pos int, collect *[]ASTNode) (int, result) {
	for _, c := range children {
		next, res := m.match(c, input, pos, collect)
		if res != rFail {
			return next, res
		}
	}
	return pos, rFail
}

func (m *matcher) matchOptional(child int, input string, pos int, collect *[]ASTNode) (int, result) {
	next, res := m.match(child, input, pos, collect)
	switch res {
	case rMatch:
		return next, rMatch
	case rPartial:
		return next, rPartial
	default:
		return pos, rMatch
	}
}

func (m *matcher) matchRepeat(child int, input string, pos int, collect *[]ASTNode, requireOne bool) (int, result) {
	cur := pos
	count := 0
	for {
		next, res := m.match(child, input, cur, collect)
		if res == rFail {
			break
		}
		if res == rPartial {
			return next, rPartial
		}
		if next == cur {
			break // no progress; avoid looping forever on a nullable child
		}
		cur = next
		count++
	}
	if requireOne && count == 0 {
		return pos, rFail
	}
	return cur, rMatch
}

func (m *matcher) matchUntil(lit, input string, pos int) (int, result) {
	remaining := input[pos:]
	if idx := strings.Index(remaining, lit); idx != -1 {
		return pos + idx, rMatch
	}
	return len(input), rPartial
}

func (m *matcher) matchTag(tag Tag, child int, input string, pos int, collect *[]ASTNode) (int, result) {
	next, res := m.match(child, input, pos, collect)
	if res == rFail {
		return pos, rFail
	}
	if tag != TagNone {
		*collect = append(*collect, ASTNode{Tag: tag, Text: input[pos:next], Partial: res == rPartial})
	}
	return next, res
}

// matchAtomic suppresses any AST nodes child would have emitted while
// still partial, so a tool-open only becomes visible once its entire
// opener (including the exact tool name) has been consumed.
func (m *matcher) matchAtomic(child int, input string, pos int, collect *[]ASTNode) (int, result) {
	var local []ASTNode
	next, res := m.match(child, input, pos, &local)
	if res == rFail {
		return pos, rFail
	}
	if res == rMatch {
		*collect = append(*collect, local...)
	}
	return next, res
}

func (m *matcher) matchPeek(child int, input string, pos int) (int, result) {
	var discard []ASTNode
	_, res := m.match(child, input, pos, &discard)
	return pos, res
}

// matchJSONValue scans input[pos:] for one complete or growing JSON
// value (object, array, or scalar), tracking container depth and
// string-quote state so braces inside string literals don't confuse
// the balance count.
func matchJSONValue(input string, pos int) (int, result) {
	s := input[pos:]
	if s == "" {
		return pos, rPartial
	}
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i >= len(s) {
		return pos, rPartial
	}
	start := i

	switch s[i] {
	case '{', '[':
		depth := 0
		inString := false
		escaped := false
		for ; i < len(s); i++ {
			c := s[i]
			if inString {
				if escaped {
					escaped = false
				} else if c == '\\' {
					escaped = true
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return pos + i + 1, rMatch
				}
			}
		}
		return len(input), rPartial
	case '"':
		i++
		escaped := false
		for ; i < len(s); i++ {
			c := s[i]
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				return pos + i + 1, rMatch
			}
		}
		return len(input), rPartial
	default:
		// bare scalar: number, true/false/null
		j := i
		for j < len(s) && isScalarChar(s[j]) {
			j++
		}
		if j == start {
			return pos, rFail
		}
		if j == len(s) {
			return len(input), rPartial
		}
		return pos + j, rMatch
	}
}

// matchSchemaString implements the monotonic string-streaming rule for
// a schema-declared string argument. A value that arrives properly
// quoted is scanned the same way a JSON string is (so a template that
// does quote its values still works); an unquoted value is read as
// raw text running up to the first occurrence of terminator — the
// literal the grammar expects right after this value, e.g. arg_close
// or a per-call closing marker — rather than JSON's bare-scalar rule,
// which rejects ordinary text. An empty terminator means the value
// runs to the end of input, the shape of a whole-response string body
// with nothing recovered to follow it.
func matchSchemaString(terminator, input string, pos int) (int, result) {
	s := input[pos:]
	if s == "" {
		return pos, rPartial
	}
	if s[0] == '"' {
		return matchJSONValue(input, pos)
	}
	if terminator == "" {
		return len(input), rMatch
	}
	if idx := strings.Index(s, terminator); idx != -1 {
		return pos + idx, rMatch
	}
	return len(input), rPartial
}

func isScalarChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' ||
		c == 't' || c == 'r' || c == 'u' || c == 'f' || c == 'a' || c == 'l' || c == 'n' || c == 's'
}
