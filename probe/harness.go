package probe

import (
	"github.com/tmplparser/autoparser/internal/aperror"
	"github.com/tmplparser/autoparser/segment"
)

// Harness drives an Engine with constructed payloads on behalf of the
// analyzer packages. It never throws: template rendering failures are
// caught and surfaced as a ProbeRenderFailure error from Render or as
// Ok=false on a Variants result, letting the
// caller fall through to the next probe (spec §4.B / §7).
type Harness struct {
	Engine Engine
}

// NewHarness wraps an Engine for probing.
func NewHarness(engine Engine) *Harness {
	return &Harness{Engine: engine}
}

// Render renders messages/tools/flags once, converting a render panic or
// error into a ProbeRenderFailure.
func (h *Harness) Render(messages []Message, tools []Tool, flags Flags) (string, error) {
	out, err := h.safeApply(messages, tools, flags)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (h *Harness) safeApply(messages []Message, tools []Tool, flags Flags) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = aperror.New(aperror.ProbeRenderFailure, "engine panicked", nil)
		}
	}()
	s, e := h.Engine.Apply(messages, tools, flags)
	if e != nil {
		return "", aperror.New(aperror.ProbeRenderFailure, "engine returned error", e)
	}
	return s, nil
}

// Variants is the {output_A, output_B, diff} result of CompareVariants.
// Ok is false when either render failed; callers should treat that as
// "no information" for the probe and move on.
type Variants struct {
	OutputA string
	OutputB string
	Diff    segment.DiffSplit
	Ok      bool
}

// CompareVariants renders tools/flags with baseMessages, then with
// mutate(baseMessages), and diffs the two outputs. It never returns an
// error: a failed render on either side yields Ok=false.
func (h *Harness) CompareVariants(baseMessages []Message, mutate func([]Message) []Message, tools []Tool, flags Flags) Variants {
	a, errA := h.safeApply(baseMessages, tools, flags)
	mutated := mutate(cloneMessages(baseMessages))
	b, errB := h.safeApply(mutated, tools, flags)
	if errA != nil || errB != nil {
		return Variants{Ok: false}
	}
	return Variants{
		OutputA: a,
		OutputB: b,
		Diff:    segment.CalculateDiffSplit(a, b),
		Ok:      true,
	}
}

// CompareFlags renders the same messages/tools under two different flag
// sets and diffs the outputs — the shape used by the enable_thinking
// toggle probe (R2).
func (h *Harness) CompareFlags(messages []Message, tools []Tool, flagsA, flagsB Flags) Variants {
	a, errA := h.safeApply(messages, tools, flagsA)
	b, errB := h.safeApply(messages, tools, flagsB)
	if errA != nil || errB != nil {
		return Variants{Ok: false}
	}
	return Variants{
		OutputA: a,
		OutputB: b,
		Diff:    segment.CalculateDiffSplit(a, b),
		Ok:      true,
	}
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	copy(out, in)
	return out
}

// GenerationPrompt renders the single canonical user turn with
// add_generation_prompt set, for the tail probe (R3) and empty-block
// search (R4).
func (h *Harness) GenerationPrompt(enableThinking bool) (string, error) {
	flags := DefaultFlags()
	flags.EnableThinking = enableThinking
	return h.safeApply([]Message{User()}, nil, flags)
}
