package fingerprint

import (
	"regexp"
	"strings"
)

// Workaround is a predicate on a template's raw source text plus a
// patch applied to the fingerprint when the predicate matches, used to
// correct known templates that differential analysis under-detects
// (spec §4.F).
type Workaround struct {
	Name  string
	Match func(sourceText string) bool
	Patch func(fp *TemplateFingerprint)
}

// ApplyWorkarounds runs the registry in order against sourceText,
// patching fp for every matching entry, then recollects preserved
// tokens so a patch's new markers are included.
func ApplyWorkarounds(fp *TemplateFingerprint, sourceText string) {
	for _, w := range registry {
		if w.Match(sourceText) {
			w.Patch(fp)
		}
	}
	fp.PreservedTokens = collectPreservedTokens(*fp)
}

// registry is the built-in, ordered workaround list.
var registry = []Workaround{
	{
		// Old reasoning templates split on "</think>" inside the
		// template program (a Jinja string split, not a literal emitted
		// to output), so differential analysis recovers no reasoning
		// markers at all even though the model reliably emits them.
		Name: "legacy-think-split-reasoning",
		Match: func(src string) bool {
			return strings.Contains(src, "split('</think>')") || strings.Contains(src, `split("</think>")`)
		},
		Patch: func(fp *TemplateFingerprint) {
			if fp.Content.ReasoningStart == "" && fp.Content.ReasoningEnd == "" {
				fp.Content.ReasoningStart = "<think>"
				fp.Content.ReasoningEnd = "</think>"
				fp.Content.ReasoningMode = ReasoningOptional
			}
		},
	},
	{
		// A specific instruction-formatted template wraps content in
		// <response>...</response> but diffing under-detects it because
		// the wrapper is only emitted conditionally on a template
		// variable the probe payloads don't set.
		Name: "response-tag-content",
		Match: func(src string) bool {
			return strings.Contains(src, "<response>")
		},
		Patch: func(fp *TemplateFingerprint) {
			if fp.Content.ContentStart == "" {
				fp.Content.ContentStart = "<response>"
				fp.Content.ContentEnd = "</response>"
				fp.Content.ContentMode = ContentAlwaysWrapped
			}
		},
	},
	{
		// Functionary 3.1 emits tool markers that the differential
		// probes recover imprecisely (its recipient-routing logic
		// interferes with the canonical probe payloads), so this
		// workaround discards only the tool-side markers and rebuilds
		// them from known-good literals, while preserving any
		// reasoning/content tokens already collected (spec §9 Q1).
		Name: "functionary-3.1-tool-reset",
		Match: func(src string) bool {
			return strings.Contains(src, "recipient") && strings.Contains(src, "functionary")
		},
		Patch: func(fp *TemplateFingerprint) {
			fp.Tools = ToolCallStructure{
				SupportsTools:  true,
				FunctionFormat: FormatRecipientBased,
				PerCallStart:   ">>>",
				ArgumentFormat: ArgsJSON,
			}
		},
	},
}

// WorkaroundExtractBetween is a regex-based fallback extractor for the
// handful of templates whose markers can't be cleanly diffed: it
// returns the text between the first match of left and the first
// subsequent match of right.
func WorkaroundExtractBetween(text, left, right string) (string, bool) {
	pattern := regexp.QuoteMeta(left) + `([\s\S]*?)` + regexp.QuoteMeta(right)
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
