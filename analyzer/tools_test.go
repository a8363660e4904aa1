package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/fakeengine"
	"github.com/tmplparser/autoparser/probe"
)

func TestAnalyzeToolsJSONNative(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleChatMLJSON))
	r := AnalyzeTools(h)

	assert.True(t, r.Tools.SupportsTools)
	assert.Equal(t, fingerprint.FormatJSONObject, r.Tools.FunctionFormat)
	assert.Equal(t, "name", r.Tools.NameField)
	assert.Equal(t, "arguments", r.Tools.ArgsField)
}

func TestAnalyzeToolsBracketTag(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleBracketTag))
	r := AnalyzeTools(h)

	assert.True(t, r.Tools.SupportsTools)
	assert.Equal(t, fingerprint.FormatBracketTag, r.Tools.FunctionFormat)
	assert.Equal(t, "[TOOL_CALLS]", r.Tools.PerCallStart)
}

func TestAnalyzeToolsRecipientBased(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleRecipient))
	r := AnalyzeTools(h)

	assert.True(t, r.Tools.SupportsTools)
	assert.Equal(t, fingerprint.FormatRecipientBased, r.Tools.FunctionFormat)
	assert.NotEmpty(t, r.RecipientContentHint)
}

func TestAnalyzeToolsFunctionTag(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleFunctionTag))
	r := AnalyzeTools(h)
	assert.True(t, r.Tools.SupportsTools)
}

// TestPrefixedIndexedExtractsNamespace guards against FunctionNamespace
// staying unassigned for the namespace-qualified, index-suffixed
// convention (e.g. Kimi-K2's "functions.foofoo:0"): classifyFormat
// detects the format, but only e3bPrefixedNamespace actually splits the
// namespace out of the text run it shares with the function name, and
// reassigns the marker e3NonJSONExtraction mistook for an id slot.
func TestPrefixedIndexedExtractsNamespace(t *testing.T) {
	section := `<|tool_call_begin|>functions.` + probe.ToolNameA + `:0<|tool_call_argument_begin|>{"first": "XXXX"}<|tool_call_end|>`

	format, nameIdx := classifyFormat(section)
	assert.Equal(t, fingerprint.FormatPrefixedIndexed, format)
	assert.NotEqual(t, -1, nameIdx)

	ts := fingerprint.ToolCallStructure{SupportsTools: true, FunctionFormat: format}
	e3NonJSONExtraction(section, nameIdx, &ts)
	e3bPrefixedNamespace(section, nameIdx, &ts)

	assert.Equal(t, "functions.", ts.FunctionNamespace)
	assert.Equal(t, "<|tool_call_begin|>", ts.PerCallStart)
	assert.Equal(t, "<|tool_call_argument_begin|>", ts.ArgsMarker)
	assert.Empty(t, ts.IDMarker)
}
