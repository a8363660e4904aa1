// Package fakeengine provides a handful of in-process stand-ins for the
// external template rendering engine, each reproducing one real model
// family's output convention closely enough to exercise the analyzer,
// PEG builder and mapper end-to-end in tests without a real Jinja
// engine. They are intentionally small — just enough surface for the
// differential probes in package analyzer to recover markers from.
package fakeengine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tmplparser/autoparser/probe"
)

// Style selects which real template family a Fake mimics.
type Style int

const (
	// StyleChatMLJSON mimics Qwen/Hermes-style output: optional
	// <think>...</think>, JSON tool calls each wrapped in
	// <tool_call>...</tool_call>.
	StyleChatMLJSON Style = iota
	// StyleFunctionTag mimics Llama-3.1-style <function=name>{...}</function>
	// tool calls with plain content, no reasoning.
	StyleFunctionTag
	// StyleBracketTag mimics Mistral-style [TOOL_CALLS]name[CALL_ID]id[ARGS]{...}.
	StyleBracketTag
	// StyleRecipient mimics Functionary v3.2's ">>>recipient\n..." convention.
	StyleRecipient
)

// Fake implements probe.Engine.
type Fake struct {
	Style      Style
	Caps_      probe.Capabilities
	SourceText string
}

// New builds a Fake for the given style with reasonable default caps.
func New(style Style) *Fake {
	f := &Fake{Style: style}
	switch style {
	case StyleChatMLJSON:
		f.Caps_ = probe.Capabilities{SupportsToolCalls: true, SupportsParallelToolCalls: true}
		f.SourceText = "chatml-json-template"
	case StyleFunctionTag:
		f.Caps_ = probe.Capabilities{SupportsToolCalls: true, SupportsParallelToolCalls: false}
		f.SourceText = "function-tag-template"
	case StyleBracketTag:
		f.Caps_ = probe.Capabilities{SupportsToolCalls: true, SupportsParallelToolCalls: true}
		f.SourceText = "bracket-tag-template"
	case StyleRecipient:
		f.Caps_ = probe.Capabilities{SupportsToolCalls: true, SupportsParallelToolCalls: false}
		f.SourceText = "recipient-based-template"
	}
	return f
}

func (f *Fake) Caps() probe.Capabilities { return f.Caps_ }
func (f *Fake) Source() string           { return f.SourceText }

func (f *Fake) Apply(messages []probe.Message, tools []probe.Tool, flags probe.Flags) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		role, _ := m["role"].(string)
		switch role {
		case "user":
			content, _ := m["content"].(string)
			fmt.Fprintf(&b, "<|im_start|>user\n%s<|im_end|>\n", content)
		case "assistant":
			b.WriteString(f.renderAssistant(m))
		}
	}
	if flags.AddGenerationPrompt {
		b.WriteString("<|im_start|>assistant\n")
		if f.Style == StyleChatMLJSON && flags.EnableThinking {
			b.WriteString("<think>\n")
		}
	}
	return b.String(), nil
}

func (f *Fake) renderAssistant(m probe.Message) string {
	var b strings.Builder
	b.WriteString("<|im_start|>assistant\n")

	content, _ := m["content"].(string)
	reasoning, _ := m["reasoning_content"].(string)
	calls := extractCalls(m)

	switch f.Style {
	case StyleChatMLJSON:
		if reasoning != "" {
			fmt.Fprintf(&b, "<think>%s</think>\n", reasoning)
		}
		b.WriteString(content)
		for _, c := range calls {
			fmt.Fprintf(&b, "\n<tool_call>\n%s\n</tool_call>", renderJSONCall(c))
		}
	case StyleFunctionTag:
		b.WriteString(content)
		for _, c := range calls {
			fmt.Fprintf(&b, "<function=%s>%s</function>", c.Name, mustJSON(c.Args))
		}
	case StyleBracketTag:
		b.WriteString(content)
		for _, c := range calls {
			fmt.Fprintf(&b, "[TOOL_CALLS]%s[CALL_ID]%s[ARGS]%s", c.Name, c.ID, mustJSON(c.Args))
		}
	case StyleRecipient:
		if len(calls) == 0 {
			fmt.Fprintf(&b, ">>>all\n%s", content)
		} else {
			c := calls[0]
			fmt.Fprintf(&b, ">>>%s\n%s", c.Name, pythonDict(c.Args))
		}
	}
	b.WriteString("<|im_end|>\n")
	return b.String()
}

type call struct {
	Name string
	ID   string
	Args map[string]interface{}
}

func extractCalls(m probe.Message) []call {
	raw, ok := m["tool_calls"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]call, 0, len(raw))
	for _, r := range raw {
		rm, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := rm["id"].(string)
		fn, _ := rm["function"].(map[string]interface{})
		name, _ := fn["name"].(string)
		args, _ := fn["arguments"].(map[string]interface{})
		out = append(out, call{Name: name, ID: id, Args: args})
	}
	return out
}

func renderJSONCall(c call) string {
	obj := map[string]interface{}{"name": c.Name, "arguments": c.Args}
	return mustJSON(obj)
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(orderedMap(v))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// orderedMap is a no-op placeholder kept for readability; encoding/json
// already emits map keys sorted, matching the deterministic rendering a
// real Jinja |tojson filter would produce.
func orderedMap(v interface{}) interface{} { return v }

// pythonDict renders args the way Functionary-style templates emit them:
// a Python dict literal with single quotes, sorted by key for
// determinism.
func pythonDict(args map[string]interface{}) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s': '%v'", k, args[k])
	}
	b.WriteByte('}')
	return b.String()
}
