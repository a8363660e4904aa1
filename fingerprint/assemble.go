package fingerprint

// Assemble combines the reasoning/content/tool analyzer results into one
// TemplateFingerprint and collects the preserved-token set in
// first-seen order (spec §4.F).
func Assemble(content ContentStructure, tools ToolCallStructure, recipientContentHint string) TemplateFingerprint {
	if recipientContentHint != "" {
		content.ContentStart = recipientContentHint
		content.ContentMode = ContentAlwaysWrapped
	}

	fp := TemplateFingerprint{Content: content, Tools: tools}
	fp.PreservedTokens = collectPreservedTokens(fp)
	return fp
}

func collectPreservedTokens(fp TemplateFingerprint) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}

	add(fp.Content.ReasoningStart)
	add(fp.Content.ReasoningEnd)
	add(fp.Content.ContentStart)
	add(fp.Content.ContentEnd)

	t := fp.Tools
	add(t.SectionStart)
	add(t.SectionEnd)
	add(t.PerCallStart)
	add(t.PerCallEnd)
	add(t.FunctionPrefix)
	add(t.FunctionSuffix)
	add(t.FunctionClose)
	add(t.FunctionNamespace)
	add(t.ArgsMarker)
	add(t.IDMarker)
	add(t.ArgPrefix)
	add(t.ArgSuffix)
	add(t.ArgClose)
	add(t.ArgSeparator)
	add(t.ArgsStart)
	add(t.ArgsEnd)
	add(t.CallID.Prefix)
	add(t.CallID.Suffix)
	add(t.CodeBlockMarker)
	add(t.CodeBlockLanguage)

	return out
}
