package astmapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/peg"
)

func TestTaggedArgumentAssemblyProducesValidJSONShape(t *testing.T) {
	ts := fingerprint.ToolCallStructure{ArgumentFormat: fingerprint.ArgsTagged}
	m := NewMapper(ts)

	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: "<function="})
	m.Feed(peg.ASTNode{Tag: peg.TagToolName, Text: "lookup"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: ">"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgName, Text: "city"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgStringValue, Text: `"paris"`})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgClose, Text: ""})
	m.Feed(peg.ASTNode{Tag: peg.TagToolClose, Text: "</function>"})

	msg := m.Finalise()
	assert.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "lookup", msg.ToolCalls[0].Name)
	assert.Equal(t, `{"city":"paris"}`, msg.ToolCalls[0].Arguments)
}

func TestPartialStringValueDefersClosingQuote(t *testing.T) {
	ts := fingerprint.ToolCallStructure{ArgumentFormat: fingerprint.ArgsTagged}
	m := NewMapper(ts)

	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: "<function="})
	m.Feed(peg.ASTNode{Tag: peg.TagToolName, Text: "lookup"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: ">"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgName, Text: "city"})
	// A growing, still-unterminated string literal: not valid JSON yet,
	// not a container prefix either, so it is typed out raw with a
	// deferred closing quote.
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgStringValue, Text: `par`, Partial: true})

	msg := m.Finalise()
	assert.Len(t, msg.ToolCalls, 1)
	// Finalise force-closes the still-open call, appending both the
	// deferred quote and the tagged-args closing brace.
	assert.Equal(t, `{"city":"par"}`, msg.ToolCalls[0].Arguments)
}

func TestSecondArgumentOmitsLeadingCommaOnlyOnFirst(t *testing.T) {
	ts := fingerprint.ToolCallStructure{ArgumentFormat: fingerprint.ArgsTagged}
	m := NewMapper(ts)

	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: "<f="})
	m.Feed(peg.ASTNode{Tag: peg.TagToolName, Text: "go"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: ">"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgName, Text: "a"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgValue, Text: "1"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgClose, Text: ""})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgName, Text: "b"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgValue, Text: "2"})
	m.Feed(peg.ASTNode{Tag: peg.TagToolArgClose, Text: ""})
	m.Feed(peg.ASTNode{Tag: peg.TagToolClose, Text: ""})

	msg := m.Finalise()
	assert.Equal(t, `{"a":1,"b":2}`, msg.ToolCalls[0].Arguments)
}

func TestJSONNativeWholeBlobUsesRecoveredFieldNames(t *testing.T) {
	ts := fingerprint.ToolCallStructure{NameField: "name", ArgsField: "arguments", ArgumentFormat: fingerprint.ArgsJSON}
	m := NewMapper(ts)

	m.Feed(peg.ASTNode{Tag: peg.TagTool, Text: `{"name": "lookup", "arguments": {"city": "paris"}}`})

	msg := m.Finalise()
	assert.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "lookup", msg.ToolCalls[0].Name)
	assert.JSONEq(t, `{"city":"paris"}`, msg.ToolCalls[0].Arguments)
}

func TestUnnamedPendingCallDiscardedAtFinalise(t *testing.T) {
	ts := fingerprint.ToolCallStructure{ArgumentFormat: fingerprint.ArgsTagged}
	m := NewMapper(ts)

	m.Feed(peg.ASTNode{Tag: peg.TagToolOpen, Text: "<function=lo", Partial: true})

	msg := m.Finalise()
	assert.Empty(t, msg.ToolCalls)
}

func TestReasoningAndContentAppend(t *testing.T) {
	ts := fingerprint.ToolCallStructure{}
	m := NewMapper(ts)
	m.Feed(peg.ASTNode{Tag: peg.TagReasoning, Text: "let me think"})
	m.Feed(peg.ASTNode{Tag: peg.TagContent, Text: "done"})
	msg := m.Finalise()
	assert.Equal(t, "let me think", msg.Reasoning)
	assert.Equal(t, "done", msg.Content)
}
