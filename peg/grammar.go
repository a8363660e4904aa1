package peg

import "github.com/tmplparser/autoparser/fingerprint"

// Grammar is the constrained-decoding hint derived from a fingerprint's
// tool-call structure (spec §7 supplemented feature: universal parser
// generators hand a sampler both a parser and a grammar/trigger pair so
// decoding can be constrained once a tool call starts). It carries no
// BNF of its own — emitting one is the engine-specific half of that
// job — only the trigger a caller needs to know when to engage it.
type Grammar struct {
	// Lazy is true when the grammar should only engage after
	// TriggerWord appears (tool_choice allows plain content first);
	// false means the grammar applies from the first generated token
	// (tool_choice is REQUIRED).
	Lazy bool
	// TriggerWord is the literal text that starts a tool call: the
	// section wrapper when one exists, otherwise the per-call opener,
	// otherwise the function prefix, otherwise the format's fixed opener
	// (">>>" or the code fence).
	TriggerWord string
}

// EmitGrammar derives the constrained-decoding trigger for fp's tool
// structure. It returns the zero Grammar when the template does not
// support tool calls at all.
func EmitGrammar(fp fingerprint.TemplateFingerprint, required bool) Grammar {
	if !fp.Tools.SupportsTools {
		return Grammar{}
	}
	return Grammar{Lazy: !required, TriggerWord: triggerLiteral(fp.Tools)}
}
