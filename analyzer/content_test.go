package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/fakeengine"
	"github.com/tmplparser/autoparser/probe"
)

func TestAnalyzeContentPlainForChatML(t *testing.T) {
	h := probe.NewHarness(fakeengine.New(fakeengine.StyleChatMLJSON))
	mode, start, end := AnalyzeContent(h)

	assert.Equal(t, fingerprint.ContentPlain, mode)
	assert.Empty(t, start)
	assert.Empty(t, end)
}
