// Package schema adapts a tool's JSON Schema for the two things the
// PEG builder and mapper need from it: whether a given argument is
// declared as a string (driving the monotonic string-streaming rule
// over generic JSON-value matching) and, once a call is fully parsed,
// validating its arguments against the declared schema. Compiling a
// schema into a decoding grammar is explicitly out of scope (spec §8
// Non-goals name compiler internals); only the call signature — build
// from a schema, ask it questions — is consumed here.
package schema

import (
	"github.com/kaptinlin/jsonschema"
	"github.com/tmplparser/autoparser/internal/jsonx"
)

// Compiler wraps kaptinlin/jsonschema for validating tool call
// arguments once the mapper has finished assembling them.
type Compiler struct {
	inner *jsonschema.Compiler
}

// NewCompiler builds a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{inner: jsonschema.NewCompiler()}
}

// ValidateArguments compiles toolSchema (an OpenAI-style function
// parameters object) and validates arguments against it, returning the
// schema library's validation error when the arguments don't conform.
func (c *Compiler) ValidateArguments(toolSchema map[string]interface{}, arguments map[string]interface{}) error {
	raw, err := jsonx.Marshal(toolSchema)
	if err != nil {
		return err
	}
	compiled, err := c.inner.Compile(raw)
	if err != nil {
		return err
	}
	result := compiled.Validate(arguments)
	if result.IsValid() {
		return nil
	}
	return &ValidationError{Result: result}
}

// ValidationError wraps a failed schema evaluation.
type ValidationError struct {
	Result *jsonschema.EvaluationResult
}

func (e *ValidationError) Error() string {
	return "arguments do not conform to the tool's declared schema"
}

// IsStringType reports whether argName is declared type "string" in a
// tool's parameters schema, the signal the PEG builder and tagged-value
// extraction use to pick tool_arg_string_value over a generic JSON
// value (spec §4.G).
func IsStringType(toolSchema map[string]interface{}, argName string) bool {
	params, _ := toolSchema["parameters"].(map[string]interface{})
	if params == nil {
		return false
	}
	props, _ := params["properties"].(map[string]interface{})
	if props == nil {
		return false
	}
	argSchema, _ := props[argName].(map[string]interface{})
	if argSchema == nil {
		return false
	}
	t, _ := argSchema["type"].(string)
	return t == "string"
}
