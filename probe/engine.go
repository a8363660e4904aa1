// Package probe drives the external template rendering engine with
// carefully constructed message payloads and captures its outputs so the
// analyzer packages can diff them. It owns the one collaborator contract
// named in spec §6: apply(messages, tools, flags) -> string.
package probe

// ToolChoice mirrors the three values a template's tool_choice flag may
// take.
type ToolChoice string

const (
	ToolChoiceNone     ToolChoice = "none"
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
)

// Flags is the rendering-time configuration passed to Engine.Apply,
// mirroring templates_params from the external render engine contract.
type Flags struct {
	AddGenerationPrompt bool
	EnableThinking      bool
	ToolChoice          ToolChoice
	ParallelToolCalls   bool
	// ExtraContext carries engine-specific extras, in particular the
	// "thinking" boolean some templates look for under extra_context
	// rather than as a top-level flag.
	ExtraContext map[string]interface{}
}

// WithThinking returns a copy of f with ExtraContext["thinking"] set,
// matching templates that only look there.
func (f Flags) WithThinking(v bool) Flags {
	out := f
	out.ExtraContext = cloneExtra(f.ExtraContext)
	out.ExtraContext["thinking"] = v
	return out
}

func cloneExtra(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Capabilities is the introspective caps() the engine exposes for a
// given template.
type Capabilities struct {
	SupportsToolCalls         bool
	SupportsParallelToolCalls bool
}

// Message is the minimal chat message shape the probe harness constructs;
// it is rendered through Engine.Apply as a generic map so arbitrary
// template-specific keys (e.g. "reasoning_content") can be attached.
type Message map[string]interface{}

// Tool is a single tool/function definition as a JSON-Schema-shaped map,
// matching the OpenAI "function" tool convention.
type Tool map[string]interface{}

// Engine is the external rendering collaborator. Implementations wrap a
// concrete chat template (Jinja or otherwise); this package never
// inspects the template's source directly except through the small
// workaround-predicate hook in package fingerprint.
type Engine interface {
	// Apply renders messages+tools+flags through the template. Errors
	// are treated by the harness as "no information" for that probe.
	Apply(messages []Message, tools []Tool, flags Flags) (string, error)
	// Caps reports the template's self-declared capabilities.
	Caps() Capabilities
	// Source exposes the template's raw source text, consulted only by
	// the small workaround-predicate registry in package fingerprint
	// (never used to drive the differential analysis itself).
	Source() string
}
