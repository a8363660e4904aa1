package chatparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/fakeengine"
	"github.com/tmplparser/autoparser/probe"
)

func TestRoundTripChatMLJSONToolCall(t *testing.T) {
	engine := fakeengine.New(fakeengine.StyleChatMLJSON)
	fp := Fingerprint(engine)
	require.True(t, fp.Tools.SupportsTools)
	require.NotEmpty(t, fp.PreservedTokens)

	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}
	parser, err := BuildParser(fp, tools, probe.ToolChoiceAuto, nil)
	require.NoError(t, err)

	text := "<think>thinking it over</think>\nhere you go\n<tool_call>\n{\"name\": \"foofoo\", \"arguments\": {\"first\": \"XXXX\"}}\n</tool_call>"
	msg := parser.Map(text)

	assert.Contains(t, msg.Reasoning, "thinking it over")
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "foofoo", msg.ToolCalls[0].Name)
	assert.Contains(t, msg.ToolCalls[0].Arguments, "XXXX")
}

func TestRoundTripBracketTagParallelCalls(t *testing.T) {
	engine := fakeengine.New(fakeengine.StyleBracketTag)
	fp := Fingerprint(engine)
	require.True(t, fp.Tools.SupportsTools)

	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}
	parser, err := BuildParser(fp, tools, probe.ToolChoiceAuto, nil)
	require.NoError(t, err)

	text := "[TOOL_CALLS]foofoo[CALL_ID]call00001[ARGS]{\"first\": \"XXXX\"}[TOOL_CALLS]foofoo[CALL_ID]call99999[ARGS]{\"first\": \"YYYY\"}"
	msg := parser.Map(text)

	require.Len(t, msg.ToolCalls, 2)
	assert.Equal(t, "call00001", msg.ToolCalls[0].ID)
	assert.Equal(t, "call99999", msg.ToolCalls[1].ID)
}

func TestRoundTripRecipientBasedArgs(t *testing.T) {
	engine := fakeengine.New(fakeengine.StyleRecipient)
	fp := Fingerprint(engine)
	require.True(t, fp.Tools.SupportsTools)

	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}
	parser, err := BuildParser(fp, tools, probe.ToolChoiceAuto, nil)
	require.NoError(t, err)

	text := ">>>foofoo\n{'first': 'XXXX'}"
	msg := parser.Map(text)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "foofoo", msg.ToolCalls[0].Name)
}

// TestTaggedArgsTwoStringValuesProduceValidJSON drives a TAG_NAME_ONLY
// fingerprint built directly (bypassing the harness diff probes, which
// only recover markers from a real rendering engine) through the full
// parse+map pipeline. It exercises two regressions together: the
// KSchema/IsString dispatch that used to reject unquoted string values
// outright, and buildTaggedArgs never tagging its closing literal as
// TOOL_ARG_CLOSE, which left a string argument's deferred closing quote
// unflushed once a second argument followed it.
func TestTaggedArgsTwoStringValuesProduceValidJSON(t *testing.T) {
	fp := fingerprint.TemplateFingerprint{
		Tools: fingerprint.ToolCallStructure{
			SupportsTools:  true,
			FunctionFormat: fingerprint.FormatTagNameOnly,
			ArgumentFormat: fingerprint.ArgsTagged,
			PerCallStart:   "<tool_call>",
			PerCallEnd:     "</tool_call>",
			ArgPrefix:      "<arg_key>",
			ArgSuffix:      "</arg_key><arg_value>",
			ArgClose:       "</arg_value>",
		},
	}
	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}
	parser, err := BuildParser(fp, tools, probe.ToolChoiceAuto, nil)
	require.NoError(t, err)

	text := "<tool_call>foofoo<arg_key>first</arg_key><arg_value>XXXX</arg_value>" +
		"<arg_key>second</arg_key><arg_value>YYYY</arg_value></tool_call>"
	msg := parser.Map(text)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "foofoo", msg.ToolCalls[0].Name)
	assert.Equal(t, `{"first":"XXXX","second":"YYYY"}`, msg.ToolCalls[0].Arguments)
}

func TestMonotonicStreamingByteByByte(t *testing.T) {
	engine := fakeengine.New(fakeengine.StyleChatMLJSON)
	fp := Fingerprint(engine)
	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}
	parser, err := BuildParser(fp, tools, probe.ToolChoiceAuto, nil)
	require.NoError(t, err)

	full := "hello there\n<tool_call>\n{\"name\": \"foofoo\", \"arguments\": {\"first\": \"XXXX\"}}\n</tool_call>"

	var prevContent string
	for i := 1; i <= len(full); i++ {
		msg := parser.Map(full[:i])
		// Monotonicity: once content stops growing (the tool call has
		// started), it must never shrink or change on later prefixes.
		if len(prevContent) > 0 && len(msg.Content) == len(prevContent) {
			assert.Equal(t, prevContent, msg.Content)
		}
		if len(msg.Content) > 0 {
			assert.True(t, strings.HasPrefix("hello there\n", msg.Content))
		}
		prevContent = msg.Content
	}

	final := parser.Map(full)
	require.Len(t, final.ToolCalls, 1)
	assert.Equal(t, "foofoo", final.ToolCalls[0].Name)
}
