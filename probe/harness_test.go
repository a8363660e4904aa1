package probe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmplparser/autoparser/internal/fakeengine"
	"github.com/tmplparser/autoparser/probe"
)

func TestCompareVariantsReasoningPresence(t *testing.T) {
	engine := fakeengine.New(fakeengine.StyleChatMLJSON)
	h := probe.NewHarness(engine)

	base := []probe.Message{probe.User(), probe.AssistantReasoning(probe.ContentMarker, "")}
	v := h.CompareVariants(base, func(msgs []probe.Message) []probe.Message {
		msgs[len(msgs)-1] = probe.AssistantReasoning(probe.ContentMarker, probe.ThoughtMarker)
		return msgs
	}, nil, probe.Flags{})

	assert.True(t, v.Ok)
	assert.Contains(t, v.OutputB, probe.ThoughtMarker)
	assert.NotContains(t, v.OutputA, probe.ThoughtMarker)
	assert.Equal(t, v.OutputA, v.Diff.Prefix+v.Diff.Left+v.Diff.Suffix)
	assert.Equal(t, v.OutputB, v.Diff.Prefix+v.Diff.Right+v.Diff.Suffix)
}

type erroringEngine struct{}

func (erroringEngine) Apply(messages []probe.Message, tools []probe.Tool, flags probe.Flags) (string, error) {
	return "", assertErr
}
func (erroringEngine) Caps() probe.Capabilities { return probe.Capabilities{} }
func (erroringEngine) Source() string           { return "" }

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestCompareVariantsRenderFailureIsRecoverable(t *testing.T) {
	h := probe.NewHarness(erroringEngine{})
	v := h.CompareVariants([]probe.Message{probe.User()}, func(m []probe.Message) []probe.Message { return m }, nil, probe.Flags{})
	assert.False(t, v.Ok)
}
