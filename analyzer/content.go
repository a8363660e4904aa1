package analyzer

import (
	"strings"

	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/probe"
)

// contentWrapperCandidates lists the fixed wrapper pairs tested against a
// rendered content marker (spec §4.D).
var contentWrapperCandidates = [][2]string{
	{"<|START_RESPONSE|>", "<|END_RESPONSE|>"},
	{"<response>", "</response>"},
	{"<output>", "</output>"},
	{"<answer>", "</answer>"},
	{"<|CHATBOT_TOKEN|>", "<|END_OF_TURN_TOKEN|>"},
}

// AnalyzeContent renders the content marker with thinking enabled and
// disabled and tests each candidate wrapper pair against both outputs,
// deciding PLAIN / ALWAYS_WRAPPED / WRAPPED_WITH_REASONING.
func AnalyzeContent(h *probe.Harness) (mode fingerprint.ContentMode, start, end string) {
	withThinking, errT := h.Render([]probe.Message{probe.User(), probe.AssistantContent(probe.ContentMarker)}, nil, thinkingFlags(true))
	withoutThinking, errF := h.Render([]probe.Message{probe.User(), probe.AssistantContent(probe.ContentMarker)}, nil, thinkingFlags(false))

	foundWith, startW, endW := false, "", ""
	if errT == nil {
		foundWith, startW, endW = matchWrapper(withThinking)
	}
	foundWithout, startWo, endWo := false, "", ""
	if errF == nil {
		foundWithout, startWo, endWo = matchWrapper(withoutThinking)
	}

	switch {
	case foundWith && foundWithout:
		return fingerprint.ContentAlwaysWrapped, startW, endW
	case foundWith && !foundWithout:
		return fingerprint.ContentWrappedWithReasoning, startW, endW
	case foundWithout && !foundWith:
		return fingerprint.ContentAlwaysWrapped, startWo, endWo
	default:
		return fingerprint.ContentPlain, "", ""
	}
}

func thinkingFlags(enable bool) probe.Flags {
	f := probe.DefaultFlags()
	f.EnableThinking = enable
	return f
}

// matchWrapper searches rendered for the content marker and tests each
// candidate pair, accepting one iff only whitespace separates the start
// candidate from the marker, and the marker from the end candidate.
func matchWrapper(rendered string) (found bool, start, end string) {
	idx := strings.Index(rendered, probe.ContentMarker)
	if idx == -1 {
		return false, "", ""
	}
	before := rendered[:idx]
	after := rendered[idx+len(probe.ContentMarker):]

	for _, pair := range contentWrapperCandidates {
		s, e := pair[0], pair[1]
		si := strings.LastIndex(before, s)
		if si == -1 || strings.TrimSpace(before[si+len(s):]) != "" {
			continue
		}
		ei := strings.Index(after, e)
		if ei == -1 || strings.TrimSpace(after[:ei]) != "" {
			continue
		}
		return true, s, e
	}
	return false, "", ""
}
