package peg

import (
	"fmt"
	"sort"

	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/aperror"
	"github.com/tmplparser/autoparser/probe"
	"github.com/tmplparser/autoparser/schema"
)

// BuildParser assembles a Program that parses a model's raw completion
// text according to fp, dispatching on the reasoning mode and (when
// tools are offered and allowed) the recovered tool-call format (spec
// §4.G). responseSchema is the caller's JSON-schema for the reply body;
// it only applies when no tools are offered.
func BuildParser(fp fingerprint.TemplateFingerprint, tools []probe.Tool, choice probe.ToolChoice, responseSchema map[string]interface{}) (*Program, error) {
	arena := NewArena()

	reasoning := buildReasoning(arena, fp.Content)

	var rest int
	switch {
	case responseSchema != nil && len(tools) == 0:
		rest = arena.Tag(TagContent, arena.Schema(schemaIsStringRoot(responseSchema), ""))
	case len(tools) > 0 && fp.Tools.SupportsTools && choice != probe.ToolChoiceNone:
		toolsNode, err := buildToolParser(arena, fp.Tools, tools)
		if err != nil {
			return nil, err
		}
		trigger := triggerLiteral(fp.Tools)
		if trigger == "" {
			// No recoverable opening literal to split on: degrade to
			// the plain-content fallback rather than guess where a
			// call might start.
			rest = arena.Tag(TagContent, arena.Rest())
			break
		}
		content := arena.Tag(TagContent, arena.Until(trigger))
		if choice == probe.ToolChoiceRequired {
			rest = arena.Seq(content, toolsNode)
		} else {
			rest = arena.Seq(content, arena.Optional(toolsNode))
		}
	default:
		rest = arena.Tag(TagContent, arena.Rest())
	}

	root := rest
	if reasoning != -1 {
		root = arena.Seq(reasoning, rest)
	}
	return &Program{Arena: arena, Root: root}, nil
}

// schemaIsStringRoot reports whether a top-level response schema
// describes a bare string, the one case the tagged-value rule (string
// vs generic JSON) also applies to a whole response body.
func schemaIsStringRoot(respSchema map[string]interface{}) bool {
	t, _ := respSchema["type"].(string)
	return t == "string"
}

// buildReasoning wraps the reasoning block per spec §4.G: a forced or
// delimiter-only block is until(end) end; an optional/tag-based block
// additionally requires its own start literal and may be absent.
// ReasoningToolsOnly is built the same way as an optional block; this
// root-level builder does not restrict it to tool-call turns.
// ReasoningNone contributes no reasoning node. Returns -1 when there is
// none.
func buildReasoning(arena *Arena, cs fingerprint.ContentStructure) int {
	switch cs.ReasoningMode {
	case fingerprint.ReasoningNone:
		return -1
	case fingerprint.ReasoningForcedOpen, fingerprint.ReasoningForcedClosed, fingerprint.ReasoningDelimiter:
		return buildForcedReasoning(arena, cs.ReasoningEnd)
	case fingerprint.ReasoningOptional, fingerprint.ReasoningTagBased, fingerprint.ReasoningToolsOnly:
		if cs.ReasoningStart == "" || cs.ReasoningEnd == "" {
			return -1
		}
		body := arena.Seq(arena.Literal(cs.ReasoningStart), arena.Tag(TagReasoning, arena.Until(cs.ReasoningEnd)), arena.Literal(cs.ReasoningEnd))
		return arena.Optional(body)
	default:
		return -1
	}
}

func buildForcedReasoning(arena *Arena, end string) int {
	if end == "" {
		return -1
	}
	return arena.Seq(arena.Tag(TagReasoning, arena.Until(end)), arena.Literal(end))
}

// buildToolParser dispatches to the format-specific sub-builder that
// knows how a single call (and repeated calls) look on the wire for
// fp.FunctionFormat (spec §4.G).
func buildToolParser(arena *Arena, ts fingerprint.ToolCallStructure, tools []probe.Tool) (int, error) {
	switch ts.FunctionFormat {
	case fingerprint.FormatJSONObject, fingerprint.FormatNameAsKey:
		return buildJSONNativeParser(arena, ts), nil
	case fingerprint.FormatTagWithName, fingerprint.FormatBracketTag:
		return buildGenericToolParser(arena, ts, tools, argsJSON), nil
	case fingerprint.FormatPrefixedIndexed:
		return buildPrefixedIndexedToolParser(arena, ts, tools), nil
	case fingerprint.FormatRecipientBased:
		return buildRecipientToolParser(arena, tools), nil
	case fingerprint.FormatMarkdownCode:
		return buildMarkdownToolParser(arena, ts, tools), nil
	case fingerprint.FormatTagNameOnly:
		return buildGenericToolParser(arena, ts, tools, argsTagged), nil
	default:
		return -1, aperror.New(aperror.UnsupportedCombination, fmt.Sprintf("unsupported tool format %q", ts.FunctionFormat), nil)
	}
}

// buildJSONNativeParser handles formats where a single call is one
// JSON object (its name/arguments/id fields live inside that object's
// keys, not as separate grammar markers); the mapper re-parses the
// matched span's JSON text itself using the recovered field names.
func buildJSONNativeParser(arena *Arena, ts fingerprint.ToolCallStructure) int {
	callUnit := arena.Seq(arena.Literal(ts.PerCallStart), arena.Tag(TagTool, arena.Json(false)), buildToolClose(arena, ts.PerCallEnd))

	if ts.ToolsArrayWrapped {
		sep := arena.Seq(arena.Literal(","), callUnit)
		body := arena.Seq(callUnit, arena.ZeroOrMore(sep))
		return arena.Seq(arena.Literal("["), body, arena.Literal("]"))
	}

	body := arena.OneOrMore(callUnit)
	if ts.SectionStart != "" {
		return arena.Seq(arena.Literal(ts.SectionStart), body, buildToolClose(arena, ts.SectionEnd))
	}
	return body
}

type argsKind int

const (
	argsJSON argsKind = iota
	argsTagged
)

// buildGenericToolParser handles the formats whose per-call opener is a
// literal prefix + the tool's name + a literal suffix (tag-embedded and
// bracket-marker formats): function_prefix/function_suffix mark the
// opener, and the arguments either parse as one opaque JSON value or
// decompose into per-argument tagged values, per argsKind.
func buildGenericToolParser(arena *Arena, ts fingerprint.ToolCallStructure, tools []probe.Tool, kind argsKind) int {
	units := make([]int, 0, len(tools))
	for _, t := range tools {
		name := toolName(t)
		if name == "" {
			continue
		}
		var open int
		if ts.PerCallStart != "" {
			// Marker-delimited opener (e.g. bracket-tag): the per-call
			// marker is the whole prefix, and nothing but the name
			// follows it before the id/args markers take over.
			open = arena.Atomic(arena.Seq(
				arena.Tag(TagToolOpen, arena.Literal(ts.PerCallStart)),
				arena.Tag(TagToolName, arena.Literal(name)),
			))
		} else {
			open = buildToolOpen(arena, ts.FunctionPrefix, name, ts.FunctionSuffix)
		}
		callID := buildCallID(arena, ts.CallID)
		var args int
		if kind == argsTagged {
			args = buildTaggedArgs(arena, ts, toolParameters(t))
		} else {
			args = arena.Tag(TagToolArgs, arena.Json(false))
		}
		close := buildToolClose(arena, ts.FunctionClose+ts.PerCallEnd)
		units = append(units, arena.Seq(open, callID, args, close))
	}
	if len(units) == 0 {
		units = append(units, arena.Eps())
	}
	body := arena.OneOrMore(arena.Choice(units...))
	if ts.SectionStart != "" {
		return arena.Seq(arena.Literal(ts.SectionStart), body, arena.Literal(ts.SectionEnd))
	}
	return body
}

// buildPrefixedIndexedToolParser handles the namespace-qualified,
// index-suffixed convention (e.g. Kimi-K2's
// "<|tool_call_begin|>functions.foofoo:0<|tool_call_argument_begin|>{...}<|tool_call_end|>"):
// the opener is per_call_start + function_namespace + name, followed by
// a positional call index the grammar skips as opaque filler (its
// value is never round-tripped, only its structural presence matters)
// up to args_marker, then the arguments and close.
func buildPrefixedIndexedToolParser(arena *Arena, ts fingerprint.ToolCallStructure, tools []probe.Tool) int {
	units := make([]int, 0, len(tools))
	for _, t := range tools {
		name := toolName(t)
		if name == "" {
			continue
		}
		open := arena.Atomic(arena.Seq(
			arena.Tag(TagToolOpen, arena.Literal(ts.PerCallStart)),
			arena.Tag(TagToolOpen, arena.Literal(ts.FunctionNamespace)),
			arena.Tag(TagToolName, arena.Literal(name)),
		))
		index := skipToMarker(arena, ts.ArgsMarker)
		argsOpen := arena.Tag(TagToolOpen, arena.Literal(ts.ArgsMarker))
		args := arena.Tag(TagToolArgs, arena.Json(false))
		close := buildToolClose(arena, ts.FunctionClose+ts.PerCallEnd)
		units = append(units, arena.Seq(open, index, argsOpen, args, close))
	}
	if len(units) == 0 {
		units = append(units, arena.Eps())
	}
	body := arena.OneOrMore(arena.Choice(units...))
	if ts.SectionStart != "" {
		return arena.Seq(arena.Literal(ts.SectionStart), body, arena.Literal(ts.SectionEnd))
	}
	return body
}

// skipToMarker consumes text up to marker the same way buildToolClose
// does, for the convention's call-index digits between a function name
// and its args marker; an empty marker contributes nothing rather than
// matching the pathological empty-terminator case Until would hit.
func skipToMarker(arena *Arena, marker string) int {
	if marker == "" {
		return arena.Eps()
	}
	return arena.Until(marker)
}

// buildRecipientToolParser handles Functionary's recipient-based
// convention (">>>name\n{pythonDict}"), which is a fixed convention
// rather than one recovered per template, so its literals are
// hardcoded instead of trusting the generic prefix/suffix diff probe
// (which cannot isolate a marker-free separator).
func buildRecipientToolParser(arena *Arena, tools []probe.Tool) int {
	units := make([]int, 0, len(tools)+1)
	for _, t := range tools {
		name := toolName(t)
		if name == "" {
			continue
		}
		open := buildToolOpen(arena, ">>>", name, "\n")
		args := arena.Tag(TagToolArgs, arena.PythonDict())
		units = append(units, arena.Seq(open, args))
	}
	// A recipient-based turn may also just address "all" with plain
	// content instead of a tool call; that is handled by the caller's
	// content branch, not here.
	if len(units) == 0 {
		units = append(units, arena.Eps())
	}
	return arena.OneOrMore(arena.Choice(units...))
}

// buildMarkdownToolParser handles calls rendered inside a fenced code
// block (e.g. "```tool_code\n{...}\n```"): the call is a whole JSON
// value between the block markers, so its name/args fields are read
// from the parsed JSON the same way JSON-native formats are.
func buildMarkdownToolParser(arena *Arena, ts fingerprint.ToolCallStructure, tools []probe.Tool) int {
	marker := ts.CodeBlockMarker
	if marker == "" {
		marker = "```"
	}
	open := marker + ts.CodeBlockLanguage + "\n"
	callUnit := arena.Seq(arena.Literal(open), arena.Tag(TagTool, arena.Json(false)), arena.Literal("\n"+marker))
	return arena.OneOrMore(callUnit)
}

// buildToolOpen builds an atomic prefix+name+suffix opener, emitting
// TOOL_OPEN around the literal text and TOOL_NAME around the tool's
// exact name in between, in that order so the mapper always sees
// TOOL_OPEN begin a pending call before TOOL_NAME tries to promote it.
func buildToolOpen(arena *Arena, prefix, name, suffix string) int {
	p1 := arena.Tag(TagToolOpen, arena.Literal(prefix))
	p2 := arena.Tag(TagToolName, arena.Literal(name))
	p3 := arena.Tag(TagToolOpen, arena.Literal(suffix))
	return arena.Atomic(arena.Seq(p1, p2, p3))
}

// buildToolClose matches up to and then over perCallEnd. It skips
// (rather than requires zero) any filler between the arguments and the
// closing marker, since templates commonly insert a newline there that
// a marker segment's recovered boundary doesn't include.
func buildToolClose(arena *Arena, perCallEnd string) int {
	if perCallEnd == "" {
		return arena.Eps()
	}
	return arena.Seq(arena.Until(perCallEnd), arena.Tag(TagToolClose, arena.Literal(perCallEnd)))
}

// triggerLiteral is the first literal text a tool call announces
// itself with — what a constrained-decoding grammar should trigger on,
// and where content(rest-until-trigger) should stop.
func triggerLiteral(ts fingerprint.ToolCallStructure) string {
	switch {
	case ts.SectionStart != "":
		return ts.SectionStart
	case ts.PerCallStart != "":
		return ts.PerCallStart
	case ts.FunctionPrefix != "":
		return ts.FunctionPrefix
	case ts.FunctionFormat == fingerprint.FormatRecipientBased:
		return ">>>"
	case ts.FunctionFormat == fingerprint.FormatMarkdownCode:
		if ts.CodeBlockMarker != "" {
			return ts.CodeBlockMarker
		}
		return "```"
	default:
		return ""
	}
}

// buildCallID wraps the id text in its recovered prefix/suffix; NONE,
// or no recovered prefix/suffix, contributes nothing. Any other
// call_id.position gets the same node, which the callers place between
// the opener and the arguments.
func buildCallID(arena *Arena, id fingerprint.CallID) int {
	if id.Position == fingerprint.CallIDNone || (id.Prefix == "" && id.Suffix == "") {
		return arena.Eps()
	}
	return arena.Seq(arena.Literal(id.Prefix), arena.Tag(TagToolID, arena.Until(id.Suffix)), arena.Literal(id.Suffix))
}

// buildTaggedArgs builds the per-argument grammar for TAG_NAME_ONLY:
// each declared parameter becomes arg_prefix name arg_suffix value
// arg_close, repeated (separated by arg_separator) inside
// args_start/args_end. The value node picks the monotonic
// string-streaming tag when the schema says the argument is a string.
func buildTaggedArgs(arena *Arena, ts fingerprint.ToolCallStructure, parameters map[string]interface{}) int {
	names := schemaPropertyNames(parameters)
	if len(names) == 0 {
		return arena.Tag(TagToolArgs, arena.Json(false))
	}
	argNodes := make([]int, 0, len(names))
	for _, name := range names {
		isStr := schema.IsStringType(map[string]interface{}{"parameters": parameters}, name)
		valueTag := TagToolArgValue
		if isStr {
			valueTag = TagToolArgStringValue
		}
		unit := arena.Seq(
			arena.Literal(ts.ArgPrefix),
			arena.Tag(TagToolArgName, arena.Literal(name)),
			arena.Literal(ts.ArgSuffix),
			arena.Tag(valueTag, arena.Schema(isStr, ts.ArgClose)),
			arena.Tag(TagToolArgClose, arena.Literal(ts.ArgClose)),
		)
		argNodes = append(argNodes, arena.Tag(TagToolArg, unit))
	}
	sep := arena.Seq(arena.Optional(arena.Literal(ts.ArgSeparator)), arena.Choice(argNodes...))
	body := arena.OneOrMore(sep)
	return arena.Seq(arena.Literal(ts.ArgsStart), body, arena.Literal(ts.ArgsEnd))
}

func schemaPropertyNames(parameters map[string]interface{}) []string {
	props, _ := parameters["properties"].(map[string]interface{})
	if props == nil {
		return nil
	}
	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func toolName(t probe.Tool) string {
	fn, _ := t["function"].(map[string]interface{})
	if fn == nil {
		return ""
	}
	name, _ := fn["name"].(string)
	return name
}

func toolParameters(t probe.Tool) map[string]interface{} {
	fn, _ := t["function"].(map[string]interface{})
	if fn == nil {
		return nil
	}
	params, _ := fn["parameters"].(map[string]interface{})
	return params
}
