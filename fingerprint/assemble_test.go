package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleCollectsPreservedTokensInFirstSeenOrder(t *testing.T) {
	content := ContentStructure{ReasoningMode: ReasoningTagBased, ReasoningStart: "<think>", ReasoningEnd: "</think>"}
	tools := ToolCallStructure{SupportsTools: true, FunctionFormat: FormatJSONObject, SectionStart: "<tool_call>", SectionEnd: "</tool_call>"}

	fp := Assemble(content, tools, "")

	assert.Equal(t, []string{"<think>", "</think>", "<tool_call>", "</tool_call>"}, fp.PreservedTokens)
}

func TestAssemblePromotesRecipientContentHint(t *testing.T) {
	tools := ToolCallStructure{SupportsTools: true, FunctionFormat: FormatRecipientBased}

	fp := Assemble(ContentStructure{}, tools, ">>>all\n")

	assert.Equal(t, ContentAlwaysWrapped, fp.Content.ContentMode)
	assert.Equal(t, ">>>all\n", fp.Content.ContentStart)
}

func TestApplyWorkaroundsFunctionaryResetPreservesReasoningTokens(t *testing.T) {
	fp := TemplateFingerprint{
		Content: ContentStructure{ReasoningStart: "<think>", ReasoningEnd: "</think>"},
		Tools:   ToolCallStructure{SupportsTools: false},
	}
	ApplyWorkarounds(&fp, "functionary recipient routing template")

	assert.True(t, fp.Tools.SupportsTools)
	assert.Equal(t, FormatRecipientBased, fp.Tools.FunctionFormat)
	assert.Contains(t, fp.PreservedTokens, "<think>")
	assert.Contains(t, fp.PreservedTokens, "</think>")
}
