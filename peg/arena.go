// Package peg builds and executes the parsing-expression grammar that
// inverts a chat template's rendering convention (spec §4.G). Parsers
// are a tagged variant of combinator kinds addressed by arena index,
// not virtual dispatch, so the grammar tree is a plain slice and
// composition is just appending nodes.
package peg

// Kind tags an arena Node with its combinator behaviour.
type Kind int

const (
	KLiteral Kind = iota
	KSeq
	KChoice
	KOptional
	KZeroOrMore
	KOneOrMore
	KUntil
	KTag
	KAtomic
	KPeek
	KSchema
	KJson
	KRest
	KEps
	KPythonDict
)

// Tag marks which semantic region of the output a combinator's matched
// span belongs to, surviving into the AST so the mapper can route
// nodes without knowing the grammar shape that produced them.
type Tag string

const (
	TagNone              Tag = ""
	TagReasoning         Tag = "REASONING"
	TagContent           Tag = "CONTENT"
	TagTool              Tag = "TOOL"
	TagToolOpen          Tag = "TOOL_OPEN"
	TagToolClose         Tag = "TOOL_CLOSE"
	TagToolName          Tag = "TOOL_NAME"
	TagToolID            Tag = "TOOL_ID"
	TagToolArgs          Tag = "TOOL_ARGS"
	TagToolArg           Tag = "TOOL_ARG"
	TagToolArgOpen       Tag = "TOOL_ARG_OPEN"
	TagToolArgClose      Tag = "TOOL_ARG_CLOSE"
	TagToolArgName       Tag = "TOOL_ARG_NAME"
	TagToolArgValue      Tag = "TOOL_ARG_VALUE"
	TagToolArgStringValue Tag = "TOOL_ARG_STRING_VALUE"
)

// Node is one arena entry. Which fields are meaningful depends on Kind:
// Literal uses Lit; Seq/Choice/OneOrMore/ZeroOrMore use Children;
// Optional/Tag/Atomic/Peek use Child; Until uses Lit as the terminator;
// Json records IsString, which its matching does not consult; Schema
// uses IsString and, when IsString is set,
// Lit as the terminator literal that ends an unquoted raw value; Tag
// uses TagName.
type Node struct {
	Kind     Kind
	TagName  Tag
	Lit      string
	Child    int
	Children []int
	IsString bool
}

// Arena owns the combinator tree; parsers are composed by appending and
// threading indices, never by pointers, so the tree has no cycles and
// no shared ownership to manage.
type Arena struct {
	Nodes []Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) add(n Node) int {
	a.Nodes = append(a.Nodes, n)
	return len(a.Nodes) - 1
}

// Literal matches the exact string s.
func (a *Arena) Literal(s string) int {
	return a.add(Node{Kind: KLiteral, Lit: s})
}

// Seq matches each child in order; the whole sequence fails if any
// child fails, and halts (without failing) if a child is still partial.
func (a *Arena) Seq(children ...int) int {
	return a.add(Node{Kind: KSeq, Children: children})
}

// Choice tries each child in order, committing to the first that does
// not fail (ordered choice, no backtracking once a prior rule
// committed elsewhere in the tree).
func (a *Arena) Choice(children ...int) int {
	return a.add(Node{Kind: KChoice, Children: children})
}

// Optional matches child zero or one times and never fails: a failing
// child matches empty, and a child that is still partial (undecided)
// leaves the Optional partial.
func (a *Arena) Optional(child int) int {
	return a.add(Node{Kind: KOptional, Child: child})
}

// ZeroOrMore repeats child until it stops matching.
func (a *Arena) ZeroOrMore(child int) int {
	return a.add(Node{Kind: KZeroOrMore, Child: child})
}

// OneOrMore repeats child, requiring at least one match.
func (a *Arena) OneOrMore(child int) int {
	return a.add(Node{Kind: KOneOrMore, Child: child})
}

// Until consumes text up to (not including) the first occurrence of
// lit, or the whole remaining input if lit has not yet appeared.
func (a *Arena) Until(lit string) int {
	return a.add(Node{Kind: KUntil, Lit: lit})
}

// Tag wraps child, emitting an AST node carrying tag and child's
// matched span whenever child matches or is partial.
func (a *Arena) Tag(tag Tag, child int) int {
	return a.add(Node{Kind: KTag, TagName: tag, Child: child})
}

// Atomic wraps child so it either matches in full or fails with no
// partial side effects: no AST nodes are emitted for a child that is
// still partial, preventing a partial tool-open from exposing a
// half-matched tool name.
func (a *Arena) Atomic(child int) int {
	return a.add(Node{Kind: KAtomic, Child: child})
}

// Peek matches child without consuming input or emitting AST nodes;
// used to confirm a closing marker follows without committing to it.
func (a *Arena) Peek(child int) int {
	return a.add(Node{Kind: KPeek, Child: child})
}

// Json matches one JSON value (object, array, string, number, bool or
// null), partial while its containers are unbalanced.
func (a *Arena) Json(isString bool) int {
	return a.add(Node{Kind: KJson, IsString: isString})
}

// Schema matches one tagged-argument value whose JSON-schema-declared
// type is known ahead of time. isString selects the monotonic
// string-streaming rule over generic JSON-prefix matching: a quoted
// value is still scanned as JSON, but an unquoted one is read as raw
// text up to terminator (the literal immediately following the value
// in the grammar, e.g. arg_close or the closing marker) rather than
// restricted to JSON's bare-scalar character set. terminator is
// ignored when isString is false.
func (a *Arena) Schema(isString bool, terminator string) int {
	return a.add(Node{Kind: KSchema, IsString: isString, Lit: terminator})
}

// Rest consumes all remaining input unconditionally.
func (a *Arena) Rest() int {
	return a.add(Node{Kind: KRest})
}

// Eps matches the empty string, always, consuming nothing.
func (a *Arena) Eps() int {
	return a.add(Node{Kind: KEps})
}

// PythonDict matches a Python-dict-literal argument blob (Functionary
// recipient-based format), the same brace-balancing scan as Json but
// quote-aware over both ' and ".
func (a *Arena) PythonDict() int {
	return a.add(Node{Kind: KPythonDict})
}

// Program is a built parser: an arena plus the index of its root node.
type Program struct {
	Arena *Arena
	Root  int
}
