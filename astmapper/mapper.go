// Package astmapper walks the tagged AST a peg.Program produces and
// assembles it into a ParsedMessage, buffering a tool call's arguments
// until its name is known and streaming string-valued arguments under
// the monotonic prefix rule (spec §4.H).
package astmapper

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/jsonx"
	"github.com/tmplparser/autoparser/internal/rlog"
	"github.com/tmplparser/autoparser/peg"
	"github.com/tmplparser/autoparser/pydict"
)

// ToolCall is one assembled tool invocation. Arguments is always
// syntactically valid JSON once the call is closed; mid-stream it may
// only be a valid prefix of one.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ParsedMessage is the mapper's sink (spec §3).
type ParsedMessage struct {
	Reasoning string
	Content   string
	ToolCalls []ToolCall
}

// Mapper holds one response's incremental parse state. It is built
// fresh from the tagged node list peg.Parse returns on every call (the
// parser keeps no cross-call state, so the mapper recomputes from
// scratch too — a growing partial string value changes shape as more
// bytes complete its escape sequences, so resuming from a prior
// half-applied append would drift from the true monotonic value).
type Mapper struct {
	ts  fingerprint.ToolCallStructure
	log *rlog.Logger

	reasoning strings.Builder
	content   strings.Builder
	toolCalls []ToolCall

	callOpen    bool
	namedIndex  int // index into toolCalls once TOOL_NAME has promoted the pending call, else -1
	pendingID   string
	argsBuffer  strings.Builder
	argCount    int
	bufQuote    bool
	liveQuote   bool
	closedThis  bool
}

// NewMapper builds a Mapper for a template whose tool-call structure is
// ts (needed to interpret JSON-native whole-call blobs and to know
// whether a call's arguments are assembled tag-by-tag).
func NewMapper(ts fingerprint.ToolCallStructure) *Mapper {
	return &Mapper{ts: ts, log: rlog.Noop(), namedIndex: -1}
}

// WithLogger attaches a logger (e.g. the one Fingerprint used to build
// ts) so unrecognized argument-value branches surface at Debug level
// instead of silently falling back to string-treatment.
func (m *Mapper) WithLogger(log *rlog.Logger) *Mapper {
	if log != nil {
		m.log = log
	}
	return m
}

// Feed processes one tagged AST node, in generation order, updating
// the mapper's incremental state.
func (m *Mapper) Feed(node peg.ASTNode) {
	switch node.Tag {
	case peg.TagReasoning:
		m.reasoning.WriteString(node.Text)
	case peg.TagContent:
		m.content.WriteString(node.Text)
	case peg.TagTool:
		m.feedWholeToolJSON(node)
	case peg.TagToolOpen:
		m.beginCall()
	case peg.TagToolID:
		id := unquoteFragment(node.Text)
		if m.namedIndex >= 0 {
			m.toolCalls[m.namedIndex].ID = id
		} else {
			m.pendingID = id
		}
	case peg.TagToolName:
		m.promote(unquoteFragment(node.Text))
	case peg.TagToolArgs:
		m.appendArgText(normalizeArgsBlob(node.Text))
	case peg.TagToolArgName:
		prefix := ","
		if m.argCount == 0 {
			prefix = ""
		}
		m.appendArgText(prefix + `"` + jsonEscapeBody(unquoteFragment(node.Text)) + `":`)
		m.argCount++
	case peg.TagToolArgValue:
		m.appendMonotonicValue(node, false)
	case peg.TagToolArgStringValue:
		m.appendMonotonicValue(node, true)
	case peg.TagToolArgClose:
		m.flushClosingQuote()
	case peg.TagToolClose:
		m.closeCall()
	}
}

// Finalise returns the assembled message, closing (or discarding) any
// tool call still open at end-of-stream per spec §4.H: a named call
// that never saw its closing marker is still closed out; a call that
// was opened but never got a name is dropped rather than exposed
// incomplete.
func (m *Mapper) Finalise() ParsedMessage {
	if m.callOpen && !m.closedThis {
		if m.namedIndex >= 0 {
			m.closeCall()
		} else {
			m.callOpen = false
		}
	}
	return ParsedMessage{
		Reasoning: m.reasoning.String(),
		Content:   m.content.String(),
		ToolCalls: m.toolCalls,
	}
}

func (m *Mapper) beginCall() {
	if m.callOpen {
		return // second TOOL_OPEN fragment of the same opener
	}
	m.callOpen = true
	m.closedThis = false
	m.namedIndex = -1
	m.pendingID = ""
	m.argsBuffer.Reset()
	m.argCount = 0
	m.bufQuote = false
	m.liveQuote = false
	if m.ts.ArgumentFormat == fingerprint.ArgsTagged {
		m.argsBuffer.WriteString("{")
	}
}

func (m *Mapper) promote(name string) {
	id := m.pendingID
	if id == "" && m.ts.CallID.Prefix == "" && m.ts.CallID.Suffix == "" {
		// The template never renders a call id at all (e.g. plain
		// ChatML-JSON tool calls); the caller still needs one to
		// correlate a tool result against this call in the next turn,
		// so synthesize one the way vLLM/llama.cpp tool parsers do.
		id = uuid.New().String()
	}
	m.toolCalls = append(m.toolCalls, ToolCall{ID: id, Name: name, Arguments: m.argsBuffer.String()})
	m.namedIndex = len(m.toolCalls) - 1
	m.liveQuote = m.bufQuote
	m.argsBuffer.Reset()
	m.bufQuote = false
}

func (m *Mapper) appendArgText(s string) {
	if m.namedIndex < 0 {
		m.argsBuffer.WriteString(s)
		return
	}
	m.toolCalls[m.namedIndex].Arguments += s
}

func (m *Mapper) setNeedsQuote(v bool) {
	if m.namedIndex < 0 {
		m.bufQuote = v
		return
	}
	m.liveQuote = v
}

func (m *Mapper) flushClosingQuote() {
	if m.namedIndex < 0 {
		if m.bufQuote {
			m.argsBuffer.WriteString(`"`)
			m.bufQuote = false
		}
		return
	}
	if m.liveQuote {
		m.toolCalls[m.namedIndex].Arguments += `"`
		m.liveQuote = false
	}
}

func (m *Mapper) closeCall() {
	m.flushClosingQuote()
	if m.ts.ArgumentFormat == fingerprint.ArgsTagged {
		m.appendArgText("}")
	}
	m.callOpen = false
	m.closedThis = true
}

// appendMonotonicValue implements spec §4.H's monotonic streaming
// rule: parse the node's text as JSON; a string value is appended
// unquoted-at-the-tail (closing quote deferred to TOOL_ARG_CLOSE); a
// non-string scalar is appended byte-for-byte raw (a JSON re-dump can
// normalise whitespace and break prefix-monotonicity); a parse failure
// on a still-growing, non-string-declared container prefix passes the
// raw text through unquoted; anything else is treated as a string
// literal being typed out one byte at a time.
func (m *Mapper) appendMonotonicValue(node peg.ASTNode, declaredString bool) {
	text := node.Text
	var v interface{}
	if err := jsonx.Unmarshal([]byte(text), &v); err == nil {
		if s, ok := v.(string); ok {
			m.appendArgText(`"` + jsonEscapeBody(s))
			m.setNeedsQuote(true)
			return
		}
		m.appendArgText(text)
		return
	}
	if node.Partial && !declaredString {
		trimmed := strings.TrimSpace(text)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			m.appendArgText(text)
			return
		}
	}
	m.log.Debug("argument value %q did not parse as JSON and isn't a growing container prefix; treating as string literal", text)
	m.appendArgText(`"` + jsonEscapeBody(text))
	m.setNeedsQuote(true)
}

// normalizeArgsBlob rewrites a Python-dict-literal arguments payload
// (Functionary's recipient-based convention) into JSON; text already
// valid JSON passes through untouched.
func normalizeArgsBlob(text string) string {
	var v interface{}
	if err := jsonx.Unmarshal([]byte(text), &v); err == nil {
		return text
	}
	if pydict.LooksLikeContainer(text) {
		return pydict.NormalizeToJSON(text)
	}
	return text
}

func (m *Mapper) feedWholeToolJSON(node peg.ASTNode) {
	obj, err := jsonx.ParseToMap(node.Text)
	if err != nil {
		return
	}
	name, id := "", ""
	var argsObj map[string]interface{}
	if m.ts.FunNameIsKey {
		for k, v := range obj {
			name = k
			if sub, ok := v.(map[string]interface{}); ok {
				argsObj = sub
			}
			break
		}
	} else {
		if v, ok := obj[m.ts.NameField].(string); ok {
			name = v
		}
		if v, ok := obj[m.ts.ArgsField].(map[string]interface{}); ok {
			argsObj = v
		}
	}
	if v, ok := obj[m.ts.IDField].(string); ok {
		id = v
	}
	if id == "" {
		id = uuid.New().String()
	}
	argsJSON, err := jsonx.Marshal(argsObj)
	if err != nil {
		argsJSON = []byte("{}")
	}
	m.toolCalls = append(m.toolCalls, ToolCall{ID: id, Name: name, Arguments: string(argsJSON)})
}

// unquoteFragment strips a single layer of surrounding quotes (either
// kind) from a raw literal match, the shape TOOL_ID and TOOL_NAME text
// arrives in when the grammar captured it including its delimiters.
func unquoteFragment(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func jsonEscapeBody(s string) string {
	raw, err := jsonx.Marshal(s)
	if err != nil || len(raw) < 2 {
		return s
	}
	return string(raw[1 : len(raw)-1])
}
