package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/fakeengine"
	"github.com/tmplparser/autoparser/probe"
)

func TestAnalyzeReasoningTagBased(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleChatMLJSON))
	cs := AnalyzeReasoning(h)

	assert.Equal(t, "<think>", cs.ReasoningStart)
	assert.Equal(t, "</think>", cs.ReasoningEnd)
	assert.NotEqual(t, fingerprint.ReasoningNone, cs.ReasoningMode)
}

func TestAnalyzeReasoningNoneForFunctionTag(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleFunctionTag))
	cs := AnalyzeReasoning(h)

	assert.Equal(t, fingerprint.ReasoningNone, cs.ReasoningMode)
	assert.Empty(t, cs.ReasoningStart)
	assert.Empty(t, cs.ReasoningEnd)
}
