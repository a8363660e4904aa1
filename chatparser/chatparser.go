// Package chatparser is the public façade: build a TemplateFingerprint
// from a rendering engine once, build an immutable parser from it, and
// hand out a fresh streaming mapper per response (spec §6).
package chatparser

import (
	"fmt"

	"github.com/tmplparser/autoparser/analyzer"
	"github.com/tmplparser/autoparser/astmapper"
	"github.com/tmplparser/autoparser/fingerprint"
	"github.com/tmplparser/autoparser/internal/rlog"
	"github.com/tmplparser/autoparser/peg"
	"github.com/tmplparser/autoparser/probe"
)

// Fingerprint drives every differential probe against engine and
// assembles the result, applying the workaround overlay against the
// engine's raw template source last (spec §4.A-§4.F). Each analyzer
// stage logs a phase line through internal/rlog so a slow or
// misbehaving probe is visible without instrumenting the analyzer
// packages themselves.
func Fingerprint(engine probe.Engine) fingerprint.TemplateFingerprint {
	log := rlog.New(engineName(engine))
	defer log.Close()
	log.Start()

	h := probe.NewHarness(engine)

	log.Phase("reasoning (R1-R4)")
	cs := analyzer.AnalyzeReasoning(h)
	log.PhaseComplete("reasoning", fmt.Sprintf("mode=%v", cs.ReasoningMode))

	log.Phase("content")
	mode, start, end := analyzer.AnalyzeContent(h)
	cs.ContentMode, cs.ContentStart, cs.ContentEnd = mode, start, end
	log.PhaseComplete("content", fmt.Sprintf("mode=%v", mode))

	log.Phase("tools (E1-E7)")
	toolsResult := analyzer.AnalyzeTools(h)
	if toolsResult.Tools.SupportsTools {
		log.PhaseComplete("tools", fmt.Sprintf("format=%v", toolsResult.Tools.FunctionFormat))
	} else {
		log.PhaseSkip("tools", "template does not support tool calls")
	}

	fp := fingerprint.Assemble(cs, toolsResult.Tools, toolsResult.RecipientContentHint)
	fingerprint.ApplyWorkarounds(&fp, engine.Source())
	log.End(true, nil)
	return fp
}

func engineName(engine probe.Engine) string {
	caps := engine.Caps()
	return fmt.Sprintf("tools=%v/parallel=%v", caps.SupportsToolCalls, caps.SupportsParallelToolCalls)
}

// Parser is an immutable, reusable parser built from one
// TemplateFingerprint. Build it once per template (typically at model
// load) and reuse it across every request.
type Parser struct {
	fp      fingerprint.TemplateFingerprint
	program *peg.Program
	grammar peg.Grammar
}

// BuildParser compiles fp (plus the caller's tool definitions, the
// tool_choice in effect, and an optional response JSON-schema) into a
// reusable Parser.
func BuildParser(fp fingerprint.TemplateFingerprint, tools []probe.Tool, choice probe.ToolChoice, responseSchema map[string]interface{}) (*Parser, error) {
	program, err := peg.BuildParser(fp, tools, choice, responseSchema)
	if err != nil {
		return nil, err
	}
	grammar := peg.EmitGrammar(fp, choice == probe.ToolChoiceRequired)
	return &Parser{fp: fp, program: program, grammar: grammar}, nil
}

// PreservedTokens are the marker literals this parser's fingerprint
// recovered, for a caller that wants to protect them from truncation
// or masking elsewhere in its pipeline.
func (p *Parser) PreservedTokens() []string { return p.fp.PreservedTokens }

// Grammar is the constrained-decoding trigger derived from this
// parser's fingerprint.
func (p *Parser) Grammar() peg.Grammar { return p.grammar }

// Parse runs the parser against the full text generated so far,
// returning the tagged AST nodes matched (or partially matched) to
// date. Call again with more text as it streams in; the parser keeps
// no state between calls.
func (p *Parser) Parse(text string) []peg.ASTNode {
	return peg.Parse(p.program, text)
}

// NewMapper returns a fresh mapper for one response, configured to
// interpret this parser's tool-call shape.
func (p *Parser) NewMapper() *astmapper.Mapper {
	return astmapper.NewMapper(p.fp.Tools)
}

// Map is the convenience most callers want: parse the accumulated text
// and assemble a ParsedMessage from it in one step. Because the parser
// re-derives the whole AST from scratch on every call, the mapper is
// rebuilt from scratch too — a growing partial value can change shape
// as more bytes complete it, so resuming a stale mapper would drift.
func (p *Parser) Map(text string) astmapper.ParsedMessage {
	mapper := p.NewMapper()
	for _, node := range p.Parse(text) {
		mapper.Feed(node)
	}
	return mapper.Finalise()
}
