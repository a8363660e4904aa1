// Package analyzer implements the reasoning, content and tool-structure
// analyzers (spec §4.C, §4.D, §4.E): differential probes that recover
// the markers a template wraps each semantic region in.
package analyzer

import "strings"

// deriveEndFromStart rewrites an opening marker into its closing
// counterpart by the structural conventions spec §4.C names:
// "<X>" -> "</X>", "<|START_X|>" -> "<|END_X|>", "<|X|>" -> "<|/X|>".
func deriveEndFromStart(start string) string {
	if strings.HasPrefix(start, "<|START_") && strings.HasSuffix(start, "|>") {
		return "<|END_" + strings.TrimSuffix(strings.TrimPrefix(start, "<|START_"), "|>") + "|>"
	}
	if strings.HasPrefix(start, "<|") && strings.HasSuffix(start, "|>") && !strings.Contains(start, "/") {
		inner := strings.TrimSuffix(strings.TrimPrefix(start, "<|"), "|>")
		return "<|/" + inner + "|>"
	}
	if strings.HasPrefix(start, "<") && strings.HasSuffix(start, ">") && !strings.HasPrefix(start, "</") {
		inner := strings.TrimSuffix(strings.TrimPrefix(start, "<"), ">")
		return "</" + inner + ">"
	}
	return ""
}

// deriveStartFromEnd is the inverse of deriveEndFromStart, applying the
// three rewrites in reverse: "</X>" -> "<X>"; "<|END_X|>" -> "<|START_X|>";
// "<|/X|>" -> "<|X|>".
func deriveStartFromEnd(end string) string {
	if strings.HasPrefix(end, "</") && strings.HasSuffix(end, ">") {
		return "<" + strings.TrimSuffix(strings.TrimPrefix(end, "</"), ">") + ">"
	}
	if strings.HasPrefix(end, "<|END_") && strings.HasSuffix(end, "|>") {
		return "<|START_" + strings.TrimSuffix(strings.TrimPrefix(end, "<|END_"), "|>") + "|>"
	}
	if strings.HasPrefix(end, "<|/") && strings.HasSuffix(end, "|>") {
		return "<|" + strings.TrimSuffix(strings.TrimPrefix(end, "<|/"), "|>") + "|>"
	}
	return ""
}

// reasoningKeywords gates R3/R4's acceptance of a candidate tag as
// reasoning-related.
var reasoningKeywords = []string{"think", "reason", "thought"}

// roleMarkerBlacklist excludes tags that are structural role markers,
// not reasoning wrappers, from R3's tail probe.
var roleMarkerBlacklist = []string{
	"<|im_start|>", "<|im_end|>", "<|assistant|>", "<|user|>", "<|system|>",
	"<|start_header_id|>", "<|end_header_id|>", "<|eot_id|>",
}

func looksLikeReasoningTag(tag string) bool {
	lower := strings.ToLower(tag)
	for _, bad := range roleMarkerBlacklist {
		if lower == strings.ToLower(bad) {
			return false
		}
	}
	for _, kw := range reasoningKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isCloser(tag string) bool {
	inner := strings.Trim(tag, "<>[]|")
	return strings.HasPrefix(inner, "/") || strings.HasPrefix(inner, "END_") || strings.Contains(tag, "</")
}

func trimTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\n\r")
}
