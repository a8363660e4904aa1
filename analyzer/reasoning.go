package analyzer

import (
	"strings"

	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/probe"
	"github.com/tmplparser/autoparser/segment"
)

// AnalyzeReasoning runs probes R1-R4 in order, short-circuiting on the
// first that recovers markers, then applies the final mode decision
// (spec §4.C).
func AnalyzeReasoning(h *probe.Harness) fingerprint.ContentStructure {
	cs := fingerprint.ContentStructure{ReasoningMode: fingerprint.ReasoningNone}

	if start, end, mode, ok := r1ReasoningContentPresence(h); ok {
		cs.ReasoningStart, cs.ReasoningEnd, cs.ReasoningMode = start, end, mode
	} else if start, end, ok := r2EnableThinkingToggle(h); ok {
		cs.ReasoningStart, cs.ReasoningEnd, cs.ReasoningMode = start, end, fingerprint.ReasoningOptional
	} else if start, end, mode, ok := r3TailProbe(h); ok {
		cs.ReasoningStart, cs.ReasoningEnd, cs.ReasoningMode = start, end, mode
	} else if start, end, ok := r4EmptyBlockSearch(h); ok {
		cs.ReasoningStart, cs.ReasoningEnd, cs.ReasoningMode = start, end, fingerprint.ReasoningForcedClosed
	}

	return finalizeReasoningMode(h, cs)
}

// r1ReasoningContentPresence probes for reasoning_content presence.
func r1ReasoningContentPresence(h *probe.Harness) (start, end string, mode fingerprint.ReasoningMode, ok bool) {
	base := []probe.Message{probe.User(), probe.AssistantReasoning(probe.ContentMarker, "")}
	v := h.CompareVariants(base, func(msgs []probe.Message) []probe.Message {
		msgs[len(msgs)-1] = probe.AssistantReasoning(probe.ContentMarker, probe.ThoughtMarker)
		return msgs
	}, nil, probe.DefaultFlags())
	if !v.Ok {
		return "", "", "", false
	}

	segs := segment.Segmentize(v.Diff.Right)
	idx := segment.FirstSegmentContaining(segs, probe.ThoughtMarker)
	if idx == -1 {
		return "", "", "", false
	}

	// Three-segment case: [open, THOUGHT_MARKER, close, ...]
	if idx >= 1 && idx+1 < len(segs) && segs[idx-1].IsMarker() && segs[idx+1].IsMarker() {
		return segs[idx-1].Value, segs[idx+1].Value, fingerprint.ReasoningTagBased, true
	}

	// Two-segment case: starts with THOUGHT_MARKER, only end marker observable.
	if idx == 0 && idx+1 < len(segs) && segs[idx+1].IsMarker() {
		return "", segs[idx+1].Value, fingerprint.ReasoningDelimiter, true
	}

	// Single-segment case: opener in prefix, closer in suffix (FORCED_CLOSED).
	if len(segs) == 1 {
		if openTag, ok := lastCompleteTag(v.Diff.Prefix); ok && looksLikeReasoningTag(openTag) {
			if closeTag, ok := firstCompleteTag(v.Diff.Suffix); ok {
				return openTag, closeTag, fingerprint.ReasoningForcedClosed, true
			}
		}
	}

	return "", "", "", false
}

// r2EnableThinkingToggle probes the enable_thinking flag.
func r2EnableThinkingToggle(h *probe.Harness) (start, end string, ok bool) {
	msgs := []probe.Message{probe.User()}
	flagsFalse := probe.DefaultFlags()
	flagsFalse.EnableThinking = false
	flagsTrue := probe.DefaultFlags()
	flagsTrue.EnableThinking = true

	v := h.CompareFlags(msgs, nil, flagsFalse, flagsTrue)
	if !v.Ok {
		return "", "", false
	}

	// Standard case: true variant has extra content - that's reasoning_start.
	if v.Diff.Right != "" && v.Diff.Left == "" {
		if tag, ok := lastCompleteTag(v.Diff.Right); ok && looksLikeReasoningTag(tag) {
			return tag, deriveEndFromStart(tag), true
		}
	}
	// Reverse case: false variant has extra content - an adjacent empty pair.
	if v.Diff.Left != "" && v.Diff.Right == "" {
		segs := segment.Segmentize(v.Diff.Left)
		if len(segs) >= 2 && segs[0].IsMarker() && segs[1].IsMarker() {
			return segs[0].Value, segs[1].Value, true
		}
	}
	return "", "", false
}

// r3TailProbe examines the final tag of a fresh generation prompt.
func r3TailProbe(h *probe.Harness) (start, end string, mode fingerprint.ReasoningMode, ok bool) {
	prompt, err := h.GenerationPrompt(true)
	if err != nil {
		return "", "", "", false
	}
	trimmed := trimTrailingNewlines(prompt)
	tag, found := lastCompleteTag(trimmed)
	if !found || !looksLikeReasoningTag(tag) {
		return "", "", "", false
	}
	if isCloser(tag) {
		return deriveStartFromEnd(tag), tag, fingerprint.ReasoningForcedClosed, true
	}
	return tag, deriveEndFromStart(tag), fingerprint.ReasoningForcedOpen, true
}

// r4EmptyBlockSearch looks for an adjacent opening/closing pair in a
// thinking-disabled generation prompt.
func r4EmptyBlockSearch(h *probe.Harness) (start, end string, ok bool) {
	prompt, err := h.GenerationPrompt(false)
	if err != nil {
		return "", "", false
	}
	segs := segment.Segmentize(prompt)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i].IsMarker() && segs[i+1].IsMarker() && looksLikeReasoningTag(segs[i].Value) {
			return segs[i].Value, segs[i+1].Value, true
		}
	}
	return "", "", false
}

// firstCompleteTag returns the tag s begins with, if any.
func firstCompleteTag(s string) (string, bool) {
	if s == "" || (s[0] != '<' && s[0] != '[') {
		return "", false
	}
	close := byte('>')
	if s[0] == '[' {
		close = ']'
	}
	idx := strings.IndexByte(s, close)
	if idx == -1 {
		return "", false
	}
	return s[:idx+1], true
}

// lastCompleteTag returns the tag s ends with, if any — the symmetric
// counterpart of firstCompleteTag, used to recover a literal that
// precedes a diff span rather than one that follows it.
func lastCompleteTag(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	open := byte('<')
	close := s[len(s)-1]
	switch close {
	case '>':
		open = '<'
	case ']':
		open = '['
	default:
		return "", false
	}
	idx := strings.LastIndexByte(s, open)
	if idx == -1 {
		return "", false
	}
	return s[idx:], true
}

// finalizeReasoningMode refines the tentative mode against a fresh
// generation prompt, per spec §4.C's mode-decision rules.
func finalizeReasoningMode(h *probe.Harness, cs fingerprint.ContentStructure) fingerprint.ContentStructure {
	if cs.ReasoningStart == "" && cs.ReasoningEnd == "" {
		cs.ReasoningMode = fingerprint.ReasoningNone
		return cs
	}

	promptOn, err := h.GenerationPrompt(true)
	if err == nil && cs.ReasoningStart != "" {
		if strings.HasSuffix(trimTrailingNewlines(promptOn), cs.ReasoningStart) {
			cs.ReasoningMode = fingerprint.ReasoningForcedOpen
		}
	}
	return cs
}
