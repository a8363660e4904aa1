package peg

import (
	"testing"

	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/probe"
)

func findAllTags(nodes []ASTNode, tag Tag) []ASTNode {
	var out []ASTNode
	for _, n := range nodes {
		if n.Tag == tag {
			out = append(out, n)
		}
	}
	return out
}

// TestBuildPrefixedIndexedToolParserRecognizesNamespaceQualifiedCall
// exercises buildPrefixedIndexedToolParser end to end against the
// namespace-qualified, index-suffixed convention it was added for,
// confirming the call-index filler is skipped and the JSON arguments
// blob is captured.
func TestBuildPrefixedIndexedToolParserRecognizesNamespaceQualifiedCall(t *testing.T) {
	ts := fingerprint.ToolCallStructure{
		FunctionFormat:    fingerprint.FormatPrefixedIndexed,
		PerCallStart:      "<|tool_call_begin|>",
		FunctionNamespace: "functions.",
		ArgsMarker:        "<|tool_call_argument_begin|>",
		PerCallEnd:        "<|tool_call_end|>",
	}
	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}

	arena := NewArena()
	root, err := buildToolParser(arena, ts, tools)
	if err != nil {
		t.Fatalf("buildToolParser error: %v", err)
	}
	prog := &Program{Arena: arena, Root: root}

	input := `<|tool_call_begin|>functions.foofoo:0<|tool_call_argument_begin|>{"first": "XXXX", "second": "YYYY"}<|tool_call_end|>`
	nodes := Parse(prog, input)

	name, ok := findTag(nodes, TagToolName)
	if !ok || name.Text != "foofoo" {
		t.Fatalf("expected TOOL_NAME foofoo, got %+v", nodes)
	}
	args, ok := findTag(nodes, TagToolArgs)
	if !ok || args.Text != `{"first": "XXXX", "second": "YYYY"}` {
		t.Fatalf("expected full args blob, got %+v", nodes)
	}
	if _, ok := findTag(nodes, TagToolClose); !ok {
		t.Fatalf("expected TOOL_CLOSE to fire, got %+v", nodes)
	}
}

// TestBuildGenericToolParserTaggedArgsStreamsUnquotedStringValues
// builds the TAG_NAME_ONLY per-argument grammar the way
// buildGenericToolParser(argsTagged) does and parses a
// GLM-4-style "<arg_key>key</arg_key><arg_value>value</arg_value>"
// rendering, confirming both declared-string arguments are read out as
// raw unquoted text (the bug the KSchema/IsString dispatch fix
// addresses) rather than failing to match at all.
func TestBuildGenericToolParserTaggedArgsStreamsUnquotedStringValues(t *testing.T) {
	ts := fingerprint.ToolCallStructure{
		FunctionFormat: fingerprint.FormatTagNameOnly,
		PerCallStart:   "<tool_call>",
		PerCallEnd:     "</tool_call>",
		ArgumentFormat: fingerprint.ArgsTagged,
		ArgPrefix:      "<arg_key>",
		ArgSuffix:      "</arg_key><arg_value>",
		ArgClose:       "</arg_value>",
	}
	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}

	arena := NewArena()
	root, err := buildToolParser(arena, ts, tools)
	if err != nil {
		t.Fatalf("buildToolParser error: %v", err)
	}
	prog := &Program{Arena: arena, Root: root}

	input := "<tool_call>foofoo<arg_key>first</arg_key><arg_value>XXXX</arg_value>" +
		"<arg_key>second</arg_key><arg_value>YYYY</arg_value></tool_call>"
	nodes := Parse(prog, input)

	values := findAllTags(nodes, TagToolArgStringValue)
	if len(values) != 2 {
		t.Fatalf("expected 2 TOOL_ARG_STRING_VALUE nodes, got %+v", nodes)
	}
	if values[0].Text != "XXXX" || values[0].Partial {
		t.Fatalf("expected first value XXXX, got %+v", values[0])
	}
	if values[1].Text != "YYYY" || values[1].Partial {
		t.Fatalf("expected second value YYYY, got %+v", values[1])
	}
	if _, ok := findTag(nodes, TagToolClose); !ok {
		t.Fatalf("expected TOOL_CLOSE to fire, got %+v", nodes)
	}
}
