package analyzer

import (
	"strings"

	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/jsonx"
	"github.com/tmplparser/autoparser/probe"
	"github.com/tmplparser/autoparser/segment"
)

// ToolsResult is AnalyzeTools' output: the recovered ToolCallStructure
// plus a content-structure hint that only RECIPIENT_BASED templates
// produce (spec §4.E post-processing).
type ToolsResult struct {
	Tools                fingerprint.ToolCallStructure
	RecipientContentHint string // promoted into content.content_start when non-empty
}

// AnalyzeTools runs the E1-E7 probes in sequence and assembles a
// ToolCallStructure.
func AnalyzeTools(h *probe.Harness) ToolsResult {
	caps := h.Engine.Caps()
	if !caps.SupportsToolCalls {
		return ToolsResult{Tools: fingerprint.ToolCallStructure{SupportsTools: false}}
	}

	tools := []probe.Tool{probe.ToolSchema(probe.ToolNameA)}

	section, ok := e1ToolSection(h, tools)
	if !ok {
		return ToolsResult{Tools: fingerprint.ToolCallStructure{SupportsTools: false}}
	}

	format, nameIdx := classifyFormat(section)
	if nameIdx == -1 {
		return ToolsResult{Tools: fingerprint.ToolCallStructure{SupportsTools: false}}
	}

	ts := fingerprint.ToolCallStructure{SupportsTools: true, FunctionFormat: format}

	switch format {
	case fingerprint.FormatJSONObject, fingerprint.FormatNameAsKey:
		e2JSONNative(section, format, &ts)
	default:
		e3NonJSONExtraction(section, nameIdx, &ts)
		switch format {
		case fingerprint.FormatPrefixedIndexed:
			e3bPrefixedNamespace(section, nameIdx, &ts)
		case fingerprint.FormatTagNameOnly:
			// TAG_NAME_ONLY carries no id slot right after the name (its
			// call id, if any, is recovered generically in E7) and no
			// single args-marker literal (its wrapper is args_start/
			// args_end, recovered in E7 too) — the marker(s)
			// e3NonJSONExtraction attributed here belong to the
			// per-argument tag structure instead, e.g. "<args>" or
			// "<arg_key>", not an id/args delimiter pair.
			ts.IDMarker = ""
			ts.ArgsMarker = ""
		}
	}

	e5FunctionNameMarkers(h, tools, format, &ts)
	e6TaggedArguments(h, tools, format, &ts)
	e7ArgsWrapperAndCallID(h, tools, format, &ts)

	if caps.SupportsParallelToolCalls {
		e4ParallelPromote(h, tools, &ts)
	}

	hint := ""
	if format == fingerprint.FormatRecipientBased {
		hint = postProcessRecipientContent(h)
	}

	ts.SectionStart = segment.StripEOSToken(ts.SectionStart)
	ts.PerCallEnd = segment.StripEOSToken(ts.PerCallEnd)

	return ToolsResult{Tools: ts, RecipientContentHint: hint}
}

// e1ToolSection diffs an assistant turn with no tool call against one
// with a single call to foofoo, returning the text unique to the
// tool-bearing render (spec §4.E E1).
func e1ToolSection(h *probe.Harness, tools []probe.Tool) (string, bool) {
	base := []probe.Message{probe.User(), probe.AssistantContent("")}
	args := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue, probe.ArgSecondName: probe.ArgSecondVal}
	v := h.CompareVariants(base, func(msgs []probe.Message) []probe.Message {
		msgs[len(msgs)-1] = probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, args)
		return msgs
	}, tools, probe.DefaultFlags())
	if !v.Ok || v.Diff.Right == "" {
		return "", false
	}
	// An opener that the content-only render shares (the ">>>" of
	// ">>>all\n" vs ">>>foofoo\n") stays in the diff prefix; the section
	// is extended back to the start of its line so the opener is kept.
	return tailSincePreamble(v.Diff.Prefix) + v.Diff.Right, true
}

// classifyFormat applies the E1 refinements (checked first, since they
// detect formats the generic three-way test would misclassify) and
// falls back to the JSON_NATIVE/TAG_WITH_JSON/TAG_WITH_TAGGED test.
// Returns the index of the literal function-name occurrence used by
// later extraction steps.
func classifyFormat(section string) (fingerprint.FunctionFormat, int) {
	if idx := strings.Index(section, "{\""+probe.ToolNameA); idx != -1 {
		return fingerprint.FormatNameAsKey, idx + 2
	}

	if idx := strings.Index(section, probe.ToolNameA); idx != -1 {
		afterIdx := idx + len(probe.ToolNameA)
		if idx > 0 && section[idx-1] == ']' && afterIdx < len(section) && section[afterIdx] == '[' {
			return fingerprint.FormatBracketTag, idx
		}
		if idx >= 3 && section[idx-3:idx] == ">>>" {
			return fingerprint.FormatRecipientBased, idx
		}
		if strings.Contains(section[:idx], "```") {
			return fingerprint.FormatMarkdownCode, idx
		}
		if strings.Contains(section[:idx], "_begin|>") && strings.HasPrefix(section[afterIdx:], ":") {
			return fingerprint.FormatPrefixedIndexed, idx
		}
	}

	if isJSONStringValue(section, probe.ToolNameA) {
		return fingerprint.FormatJSONObject, strings.Index(section, "\""+probe.ToolNameA+"\"") + 1
	}
	if isJSONStringValue(section, probe.ArgFirstName) {
		idx := strings.Index(section, probe.ToolNameA)
		if idx == -1 {
			idx = strings.Index(section, "\""+probe.ArgFirstName+"\"")
		}
		return fingerprint.FormatTagWithName, idx
	}

	idx := strings.Index(section, probe.ToolNameA)
	if idx == -1 {
		return "", -1
	}
	return fingerprint.FormatTagNameOnly, idx
}

// isJSONStringValue reports whether value occurs in section quoted as a
// JSON string, with the nearest preceding non-whitespace character being
// ':' or '{' (spec §4.E E1).
func isJSONStringValue(section, value string) bool {
	idx := strings.Index(section, "\""+value+"\"")
	if idx == -1 {
		return false
	}
	before := strings.TrimRight(section[:idx], " \t\r\n")
	if before == "" {
		return false
	}
	c := before[len(before)-1]
	return c == ':' || c == '{'
}

// e2JSONNative extracts field roles from the recovered JSON object
// (spec §4.E E2).
func e2JSONNative(section string, format fingerprint.FunctionFormat, ts *fingerprint.ToolCallStructure) {
	jsonStr, braceBefore, ok := balancedJSONObject(section)
	if !ok {
		return
	}
	ts.ToolsArrayWrapped = braceBefore == '['
	jsonIdx := strings.Index(section, jsonStr)
	if !ts.ToolsArrayWrapped && jsonIdx != -1 {
		assignPerCallMarkers(section, jsonIdx, jsonIdx+len(jsonStr), ts)
	}

	keys := topLevelKeysInOrder(jsonStr)
	obj, err := jsonx.ParseToMap(jsonStr)
	if err != nil {
		ts.ParameterOrder = keys
		return
	}

	assignFieldRoles(keys, obj, ts)
	ts.ParameterOrder = keys

	if format == fingerprint.FormatNameAsKey {
		ts.FunNameIsKey = true
		ts.NameField = ""
		ts.ArgsField = ""
	}
}

func assignFieldRoles(keys []string, obj map[string]interface{}, ts *fingerprint.ToolCallStructure) {
	for _, k := range keys {
		v := obj[k]
		switch val := v.(type) {
		case string:
			if val == probe.ToolNameA {
				ts.NameField = k
			} else if strings.HasPrefix(val, "call0000") || val == probe.CallID1 {
				ts.IDField = k
			}
		case map[string]interface{}:
			nested := make([]string, 0, len(val))
			for nk := range val {
				nested = append(nested, nk)
			}
			if _, hasArg := val[probe.ArgFirstName]; hasArg {
				ts.ArgsField = k
			} else if _, hasName := val["name"]; hasName {
				ts.FunctionField = k
				assignFieldRoles(nested, val, ts)
			}
		}
	}
}

// balancedJSONObject finds the first top-level '{'...'}' span in s and
// returns it with the non-whitespace character immediately preceding
// the opener (used to detect an array wrapper).
func balancedJSONObject(s string) (jsonStr string, before byte, ok bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", 0, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				pre := strings.TrimRight(s[:start], " \t\r\n")
				var b byte
				if len(pre) > 0 {
					b = pre[len(pre)-1]
				}
				return s[start : i+1], b, true
			}
		}
	}
	return "", 0, false
}

// topLevelKeysInOrder scans a JSON object literal, returning its
// top-level keys in source order.
func topLevelKeysInOrder(jsonStr string) []string {
	var keys []string
	depth := 0
	inString := false
	escaped := false
	i := 0
	n := len(jsonStr)
	for i < n {
		c := jsonStr[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			i++
			continue
		}
		switch c {
		case '"':
			if depth == 1 {
				j := i + 1
				for j < n && jsonStr[j] != '"' {
					if jsonStr[j] == '\\' {
						j++
					}
					j++
				}
				key := jsonStr[i+1 : j]
				after := strings.TrimLeft(jsonStr[j+1:], " \t\r\n")
				if strings.HasPrefix(after, ":") {
					keys = append(keys, key)
				}
				i = j + 1
				continue
			}
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		i++
	}
	return keys
}

// assignPerCallMarkers finds the marker segments immediately
// surrounding a JSON-native call's [startIdx,endIdx) span within
// section and recovers per_call_start/end (and, one level further
// out, section_start/end) from them — the same two-level lookup
// e3NonJSONExtraction does for tag-embedded formats, since a JSON-native
// call can still be wrapped in its own marker pair (e.g.
// "<tool_call>{...}</tool_call>").
func assignPerCallMarkers(section string, startIdx, endIdx int, ts *fingerprint.ToolCallStructure) {
	segs := segment.Segmentize(section)
	offset := 0
	textIdx := -1
	for i, s := range segs {
		end := offset + len(s.Value)
		if !s.IsMarker() && startIdx >= offset && endIdx <= end {
			textIdx = i
			break
		}
		offset = end
	}
	if textIdx == -1 {
		return
	}
	if textIdx > 0 && segs[textIdx-1].IsMarker() {
		ts.PerCallStart = segs[textIdx-1].Value
		if textIdx > 1 && segs[textIdx-2].IsMarker() {
			ts.SectionStart = segs[textIdx-2].Value
		}
	}
	if textIdx+1 < len(segs) && segs[textIdx+1].IsMarker() {
		ts.PerCallEnd = segs[textIdx+1].Value
		if textIdx+2 < len(segs) && segs[textIdx+2].IsMarker() {
			ts.SectionEnd = segs[textIdx+2].Value
		}
	}
}

// e3NonJSONExtraction assigns section/per-call wrapper markers by
// locating the marker segments immediately adjacent to the function
// name in the segmentised tool section (spec §4.E E3).
func e3NonJSONExtraction(section string, nameIdx int, ts *fingerprint.ToolCallStructure) {
	segs := segment.Segmentize(section)
	offset := 0
	textIdx := -1
	for i, s := range segs {
		end := offset + len(s.Value)
		if !s.IsMarker() && nameIdx >= offset && nameIdx < end {
			textIdx = i
			break
		}
		offset = end
	}
	if textIdx == -1 {
		return
	}
	if textIdx > 0 && segs[textIdx-1].IsMarker() {
		ts.PerCallStart = segs[textIdx-1].Value
		if textIdx > 1 && segs[textIdx-2].IsMarker() {
			ts.SectionStart = segs[textIdx-2].Value
		}
	}
	if textIdx+1 < len(segs) && segs[textIdx+1].IsMarker() {
		ts.IDMarker = segs[textIdx+1].Value
		if textIdx+2 < len(segs) && segs[textIdx+2].IsMarker() {
			ts.ArgsMarker = segs[textIdx+2].Value
		} else if textIdx+3 < len(segs) && segs[textIdx+2].Value == probe.CallID1 && segs[textIdx+3].IsMarker() {
			// The rendered id is its own text run between the id marker
			// and the args marker ("[CALL_ID]call00001[ARGS]").
			ts.ArgsMarker = segs[textIdx+3].Value
		}
	}
}

// e3bPrefixedNamespace recovers function_namespace for PREFIXED_INDEXED
// templates (e.g. Kimi-K2's "<|tool_call_begin|>functions.foofoo:0<|tool_call_argument_begin|>"):
// the namespace and the call's positional index live in the same plain-text
// run as the function name, so segment.Segmentize cannot isolate them as
// their own markers the way e3NonJSONExtraction isolates per_call_start.
// e3NonJSONExtraction already (mis)reads the marker right after that text
// run as IDMarker, since this convention carries no separate id slot; this
// moves it into ArgsMarker, its real role here.
func e3bPrefixedNamespace(section string, nameIdx int, ts *fingerprint.ToolCallStructure) {
	segs := segment.Segmentize(section)
	offset := 0
	for _, s := range segs {
		end := offset + len(s.Value)
		if !s.IsMarker() && nameIdx >= offset && nameIdx < end {
			ts.FunctionNamespace = section[offset:nameIdx]
			break
		}
		offset = end
	}
	if ts.ArgsMarker == "" {
		ts.ArgsMarker = ts.IDMarker
	}
	ts.IDMarker = ""
}

// e4ParallelPromote renders one call against two and checks whether the
// text preceding each repeated call matches what was classified as
// section_start; if so, demote it to per_call_start/end (spec §4.E E4).
func e4ParallelPromote(h *probe.Harness, tools []probe.Tool, ts *fingerprint.ToolCallStructure) {
	if ts.SectionStart == "" {
		return
	}
	oneCall := []probe.Message{probe.User(), probe.ToolCallMessageN(probe.ToolNameA, 1)}
	twoCall := []probe.Message{probe.User(), probe.ToolCallMessageN(probe.ToolNameA, 2)}
	outA, errA := h.Render(oneCall, tools, probe.DefaultFlags())
	outB, errB := h.Render(twoCall, tools, probe.DefaultFlags())
	if errA != nil || errB != nil {
		return
	}
	diff := segment.CalculateDiffSplit(outA, outB)
	if strings.HasPrefix(diff.Right, ts.SectionStart) {
		ts.PerCallStart = ts.SectionStart
		ts.PerCallEnd = ts.SectionEnd
		ts.SectionStart = ""
		ts.SectionEnd = ""
	}
}

// e5FunctionNameMarkers diffs a foofoo call against a barbar call,
// recovering function_prefix/suffix from the regions that differ (spec
// §4.E E5). Only meaningful for tag-embedded name formats; JSON-native
// and marker-delimited formats get their name markers from E2/E3
// instead, so this only fills gaps those steps left empty.
func e5FunctionNameMarkers(h *probe.Harness, tools []probe.Tool, format fingerprint.FunctionFormat, ts *fingerprint.ToolCallStructure) {
	if format == fingerprint.FormatJSONObject || format == fingerprint.FormatNameAsKey ||
		format == fingerprint.FormatRecipientBased || format == fingerprint.FormatMarkdownCode {
		return
	}
	if ts.PerCallStart != "" || ts.SectionStart != "" {
		return
	}
	argsA := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue}
	callA := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, argsA)}
	callB := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameB, probe.CallID1, argsA)}
	outA, errA := h.Render(callA, tools, probe.DefaultFlags())
	outB, errB := h.Render(callB, tools, probe.DefaultFlags())
	if errA != nil || errB != nil {
		return
	}
	diff := segment.CalculateDiffSplit(outA, outB)
	if diff.Left != probe.ToolNameA || diff.Right != probe.ToolNameB {
		return
	}
	ts.FunctionPrefix = tailSincePreamble(diff.Prefix)

	segs := segment.Segmentize(diff.Suffix)
	if len(segs) > 0 {
		ts.FunctionSuffix = segs[0].Value
	}
}

// tailSincePreamble strips the common role-preamble (everything up to
// and including the final newline) from a diff prefix, isolating the
// literal text immediately before the differing span.
func tailSincePreamble(prefix string) string {
	if i := strings.LastIndexByte(prefix, '\n'); i != -1 {
		return prefix[i+1:]
	}
	return prefix
}

// e6TaggedArguments recovers arg_prefix/arg_suffix/arg_close/arg_separator
// for TAG_WITH_TAGGED formats by comparing one-argument and
// two-argument renders (spec §4.E E6).
func e6TaggedArguments(h *probe.Harness, tools []probe.Tool, format fingerprint.FunctionFormat, ts *fingerprint.ToolCallStructure) {
	if format != fingerprint.FormatTagNameOnly {
		ts.ArgumentFormat = fingerprint.ArgsJSON
		e6bFunctionClose(h, tools, ts)
		return
	}
	ts.ArgumentFormat = fingerprint.ArgsTagged

	oneArg := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue}
	twoArg := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue, probe.ArgSecondName: probe.ArgSecondVal}
	callOne := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, oneArg)}
	callTwo := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, twoArg)}
	outOne, errOne := h.Render(callOne, tools, probe.DefaultFlags())
	outTwo, errTwo := h.Render(callTwo, tools, probe.DefaultFlags())
	if errOne != nil || errTwo != nil {
		return
	}
	diff := segment.CalculateDiffSplit(outOne, outTwo)
	if secondIdx := strings.Index(diff.Right, probe.ArgSecondName); secondIdx != -1 {
		ts.ArgSeparator = diff.Right[:secondIdx]
	}

	idx := strings.Index(outOne, probe.ArgFirstValue)
	if idx == -1 {
		return
	}
	nameIdx := strings.LastIndex(outOne[:idx], probe.ArgFirstName)
	if nameIdx == -1 {
		return
	}
	if tag, ok := lastCompleteTag(outOne[:nameIdx]); ok {
		ts.ArgPrefix = tag
	}
	ts.ArgSuffix = outOne[nameIdx+len(probe.ArgFirstName) : idx]
	after := outOne[idx+len(probe.ArgFirstValue):]
	if tag, ok := firstCompleteTag(after); ok {
		ts.ArgClose = tag
	}
}

// e6bFunctionClose locates any literal a tag-embedded format emits right
// after a call's JSON arguments close (e.g. the "</function>" in
// "<function=name>{...}</function>"), which e5's diff-based probe
// cannot see since it only looks at the text surrounding the name.
func e6bFunctionClose(h *probe.Harness, tools []probe.Tool, ts *fingerprint.ToolCallStructure) {
	args := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue}
	call := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, args)}
	out, err := h.Render(call, tools, probe.DefaultFlags())
	if err != nil {
		return
	}
	jsonStr, _, ok := balancedJSONObject(out)
	if !ok {
		return
	}
	after := out[strings.Index(out, jsonStr)+len(jsonStr):]
	if tag, ok := firstCompleteTag(after); ok {
		ts.FunctionClose = segment.StripEOSToken(tag)
	}
}

// e7ArgsWrapperAndCallID recovers args_start/args_end from a zero-arg vs
// one-arg diff, and call_id.position from an id1 vs id2 diff (spec §4.E
// E7).
func e7ArgsWrapperAndCallID(h *probe.Harness, tools []probe.Tool, format fingerprint.FunctionFormat, ts *fingerprint.ToolCallStructure) {
	if ts.IDMarker != "" {
		// E3 already found a clean, marker-delimited id slot; a generic
		// diff over CallID1/CallID2 would only rediscover the same
		// prefix polluted with the preceding section/name text.
		ts.CallID.Position = fingerprint.CallIDBetweenFuncAndArg
		ts.CallID.Prefix = ts.IDMarker
		ts.CallID.Suffix = ts.ArgsMarker
	}
	if format == fingerprint.FormatTagNameOnly {
		zero := map[string]interface{}{}
		one := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue}
		callZero := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, zero)}
		callOne := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, one)}
		outZero, errZ := h.Render(callZero, tools, probe.DefaultFlags())
		outOne, errO := h.Render(callOne, tools, probe.DefaultFlags())
		if errZ == nil && errO == nil {
			diff := segment.CalculateDiffSplit(outZero, outOne)
			ts.ArgsStart = tailSincePreamble(diff.Prefix)
			if tag, ok := firstCompleteTag(diff.Suffix); ok {
				ts.ArgsEnd = tag
			}
		}
	} else {
		ts.ArgsStart = "{"
		ts.ArgsEnd = "}"
	}

	if ts.IDMarker != "" {
		return
	}

	args := map[string]interface{}{probe.ArgFirstName: probe.ArgFirstValue}
	call1 := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID1, args)}
	call2 := []probe.Message{probe.User(), probe.ToolCallMessage(probe.ToolNameA, probe.CallID2, args)}
	out1, err1 := h.Render(call1, tools, probe.DefaultFlags())
	out2, err2 := h.Render(call2, tools, probe.DefaultFlags())
	if err1 != nil || err2 != nil {
		return
	}
	diff := segment.CalculateDiffSplit(out1, out2)
	if diff.Left != probe.CallID1 || diff.Right != probe.CallID2 {
		return
	}
	funcInPrefix := strings.Contains(diff.Prefix, probe.ToolNameA)
	argsOpenerInSuffix := strings.Contains(diff.Suffix, "{")
	argsOpenerInPrefix := strings.Contains(diff.Prefix, "{")

	switch {
	case funcInPrefix && argsOpenerInSuffix:
		ts.CallID.Position = fingerprint.CallIDBetweenFuncAndArg
	case funcInPrefix && argsOpenerInPrefix:
		ts.CallID.Position = fingerprint.CallIDPostArgs
	case !funcInPrefix:
		ts.CallID.Position = fingerprint.CallIDPreFuncName
	default:
		ts.CallID.Position = fingerprint.CallIDNone
	}
	ts.CallID.Prefix = tailSincePreamble(diff.Prefix)
	if tag, ok := firstCompleteTag(diff.Suffix); ok {
		ts.CallID.Suffix = tag
	}
}

// postProcessRecipientContent renders a content-only assistant turn and
// returns the prefix (typically tool_section_start + "all\n") that
// RECIPIENT_BASED templates wrap plain content in, for promotion into
// content.content_start (spec §4.E post-processing).
func postProcessRecipientContent(h *probe.Harness) string {
	out, err := h.Render([]probe.Message{probe.User(), probe.AssistantContent(probe.ContentMarker)}, nil, probe.DefaultFlags())
	if err != nil {
		return ""
	}
	idx := strings.Index(out, probe.ContentMarker)
	if idx == -1 {
		return ""
	}
	pre := out[:idx]
	if i := strings.LastIndexByte(strings.TrimRight(pre, "\n"), '\n'); i != -1 {
		return pre[i+1:]
	}
	return pre
}
