package peg

import "testing"

func findTag(nodes []ASTNode, tag Tag) (ASTNode, bool) {
	for _, n := range nodes {
		if n.Tag == tag {
			return n, true
		}
	}
	return ASTNode{}, false
}

func TestParseLiteralSeq(t *testing.T) {
	arena := NewArena()
	root := arena.Seq(arena.Tag(TagReasoning, arena.Until("END")), arena.Literal("END"))
	prog := &Program{Arena: arena, Root: root}

	nodes := Parse(prog, "hello worldEND")
	n, ok := findTag(nodes, TagReasoning)
	if !ok || n.Text != "hello world" {
		t.Fatalf("got %+v", nodes)
	}
}

func TestParsePartialOnTruncatedInput(t *testing.T) {
	arena := NewArena()
	root := arena.Seq(arena.Literal("<a>"), arena.Tag(TagContent, arena.Json(false)))
	prog := &Program{Arena: arena, Root: root}

	nodes := Parse(prog, "<a>{\"x\": 1")
	n, ok := findTag(nodes, TagContent)
	if !ok {
		t.Fatalf("expected a partial CONTENT node, got %+v", nodes)
	}
	if !n.Partial {
		t.Fatalf("expected Partial=true for truncated JSON, got %+v", n)
	}
}

func TestAtomicSuppressesPartialNodes(t *testing.T) {
	arena := NewArena()
	open := arena.Atomic(arena.Seq(arena.Tag(TagToolOpen, arena.Literal("<function=")), arena.Tag(TagToolName, arena.Literal("lookup")), arena.Tag(TagToolOpen, arena.Literal(">"))))
	prog := &Program{Arena: arena, Root: open}

	// Half the opener present: name not yet decidable, nothing should
	// be emitted even though the literal prefix matches so far.
	nodes := Parse(prog, "<function=look")
	if len(nodes) != 0 {
		t.Fatalf("expected no nodes while opener is still partial, got %+v", nodes)
	}

	nodes = Parse(prog, "<function=lookup>")
	if _, ok := findTag(nodes, TagToolName); !ok {
		t.Fatalf("expected TOOL_NAME once the opener fully matched, got %+v", nodes)
	}
}

func TestChoicePicksFirstNonFail(t *testing.T) {
	arena := NewArena()
	root := arena.Choice(arena.Literal("a"), arena.Literal("b"))
	prog := &Program{Arena: arena, Root: root}

	if _, res := (&matcher{arena: arena}).match(root, "b", 0, &[]ASTNode{}); res != rMatch {
		t.Fatalf("expected rMatch, got %v", res)
	}
	_ = prog
}

func TestPythonDictBalancesQuotes(t *testing.T) {
	pos, res := matchPythonDictValue(`{'a': 'it\'s fine'}`, 0)
	if res != rMatch {
		t.Fatalf("expected rMatch, got %v at %d", res, pos)
	}
}

// TestSchemaStringScansRawTextToTerminator guards against routing an
// unquoted Schema(isString) value through the JSON bare-scalar rule,
// which only accepts JSON-scalar characters and would fail outright on
// ordinary text like a tagged-argument's raw string value.
func TestSchemaStringScansRawTextToTerminator(t *testing.T) {
	arena := NewArena()
	root := arena.Seq(arena.Tag(TagToolArgStringValue, arena.Schema(true, "</arg>")), arena.Literal("</arg>"))
	prog := &Program{Arena: arena, Root: root}

	nodes := Parse(prog, "XXXX</arg>")
	n, ok := findTag(nodes, TagToolArgStringValue)
	if !ok || n.Text != "XXXX" || n.Partial {
		t.Fatalf("expected complete TOOL_ARG_STRING_VALUE %q, got %+v", "XXXX", nodes)
	}
}

func TestSchemaStringPartialBeforeTerminatorArrives(t *testing.T) {
	arena := NewArena()
	root := arena.Tag(TagToolArgStringValue, arena.Schema(true, "</arg>"))
	prog := &Program{Arena: arena, Root: root}

	nodes := Parse(prog, "XX")
	n, ok := findTag(nodes, TagToolArgStringValue)
	if !ok || n.Text != "XX" || !n.Partial {
		t.Fatalf("expected a partial TOOL_ARG_STRING_VALUE, got %+v", nodes)
	}
}

// TestSchemaStringStillHandlesQuotedValue confirms a template that does
// quote its tagged values still scans as a JSON string rather than
// being forced into the raw-text path.
func TestSchemaStringStillHandlesQuotedValue(t *testing.T) {
	arena := NewArena()
	root := arena.Seq(arena.Tag(TagToolArgStringValue, arena.Schema(true, "</arg>")), arena.Literal("</arg>"))
	prog := &Program{Arena: arena, Root: root}

	nodes := Parse(prog, `"XXXX"</arg>`)
	n, ok := findTag(nodes, TagToolArgStringValue)
	if !ok || n.Text != `"XXXX"` || n.Partial {
		t.Fatalf("expected quoted TOOL_ARG_STRING_VALUE %q, got %+v", `"XXXX"`, nodes)
	}
}
