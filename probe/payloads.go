package probe

// Canonical probe values. Fixed so markers can be recovered by location
// rather than by guessing (spec §4.B).
const (
	UserText      = "Hello"
	AssistantText = "Response text"
	ThoughtMarker = "UNIQUE_THOUGHT_98765"
	ContentMarker = "UNIQUE_CONTENT_12345"

	ToolNameA = "foofoo"
	ToolNameB = "barbar"

	ArgFirstName  = "first"
	ArgSecondName = "second"
	ArgFirstValue = "XXXX"
	ArgSecondVal  = "YYYY"

	CallID1 = "call00001"
	CallID2 = "call99999"
)

// User builds the canonical single-user-turn message.
func User() Message {
	return Message{"role": "user", "content": UserText}
}

// AssistantContent builds an assistant message carrying only content.
func AssistantContent(content string) Message {
	return Message{"role": "assistant", "content": content}
}

// AssistantReasoning builds an assistant message carrying both content
// and reasoning_content, used by reasoning probe R1.
func AssistantReasoning(content, reasoning string) Message {
	return Message{"role": "assistant", "content": content, "reasoning_content": reasoning}
}

// ToolSchema builds a canonical tool definition for name with the two
// canonical string parameters (first, second).
func ToolSchema(name string) Tool {
	return Tool{
		"type": "function",
		"function": map[string]interface{}{
			"name":        name,
			"description": "test tool",
			"parameters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					ArgFirstName:  map[string]interface{}{"type": "string"},
					ArgSecondName: map[string]interface{}{"type": "string"},
				},
				"required": []interface{}{ArgFirstName, ArgSecondName},
			},
		},
	}
}

// ToolCallMessage builds an assistant message containing one rendered
// tool call (name/args/id), in the generic OpenAI tool_calls shape the
// harness feeds to Engine.Apply.
func ToolCallMessage(name, id string, args map[string]interface{}) Message {
	return Message{
		"role": "assistant",
		"tool_calls": []interface{}{
			map[string]interface{}{
				"id":   id,
				"type": "function",
				"function": map[string]interface{}{
					"name":      name,
					"arguments": args,
				},
			},
		},
	}
}

// ToolCallMessageN builds an assistant message with n rendered tool
// calls that are identical (same function name, id CallID1 and
// arguments), used by the parallel-call probe E4.
func ToolCallMessageN(name string, n int) Message {
	calls := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		calls = append(calls, map[string]interface{}{
			"id":   CallID1,
			"type": "function",
			"function": map[string]interface{}{
				"name":      name,
				"arguments": map[string]interface{}{ArgFirstName: ArgFirstValue},
			},
		})
	}
	return Message{"role": "assistant", "tool_calls": calls}
}

// DefaultFlags returns a generation-prompt flag set with thinking
// enabled and tool_choice auto, the harness's baseline for most probes.
func DefaultFlags() Flags {
	return Flags{
		AddGenerationPrompt: true,
		EnableThinking:      true,
		ToolChoice:          ToolChoiceAuto,
		ParallelToolCalls:   true,
		ExtraContext:        map[string]interface{}{},
	}
}
