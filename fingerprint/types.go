// Package fingerprint holds the TemplateFingerprint data model (spec §3)
// and assembles the results of the reasoning/content/tool analyzers into
// one immutable structure, applying the workaround overlay (spec §4.F).
package fingerprint

// ReasoningMode classifies how a template handles the reasoning block.
type ReasoningMode string

const (
	ReasoningNone         ReasoningMode = "NONE"
	ReasoningOptional     ReasoningMode = "OPTIONAL"
	ReasoningForcedOpen   ReasoningMode = "FORCED_OPEN"
	ReasoningForcedClosed ReasoningMode = "FORCED_CLOSED"
	ReasoningTagBased     ReasoningMode = "TAG_BASED"
	ReasoningDelimiter    ReasoningMode = "DELIMITER"
	ReasoningToolsOnly    ReasoningMode = "TOOLS_ONLY"
)

// ContentMode classifies how a template wraps visible content.
type ContentMode string

const (
	ContentPlain                 ContentMode = "PLAIN"
	ContentAlwaysWrapped         ContentMode = "ALWAYS_WRAPPED"
	ContentWrappedWithReasoning  ContentMode = "WRAPPED_WITH_REASONING"
	ContentEndDelimited          ContentMode = "END_DELIMITED"
)

// ContentStructure is Phase 1's result (spec §3).
type ContentStructure struct {
	ReasoningMode  ReasoningMode
	ReasoningStart string
	ReasoningEnd   string

	ContentMode  ContentMode
	ContentStart string
	ContentEnd   string
}

// FunctionFormat classifies how a single tool call is structured.
type FunctionFormat string

const (
	FormatJSONObject      FunctionFormat = "JSON_OBJECT"
	FormatTagWithName     FunctionFormat = "TAG_WITH_NAME"
	FormatTagNameOnly     FunctionFormat = "TAG_NAME_ONLY"
	FormatPrefixedIndexed FunctionFormat = "PREFIXED_INDEXED"
	FormatNameAsKey       FunctionFormat = "NAME_AS_KEY"
	FormatBracketTag      FunctionFormat = "BRACKET_TAG"
	FormatRecipientBased  FunctionFormat = "RECIPIENT_BASED"
	FormatMarkdownCode    FunctionFormat = "MARKDOWN_CODE_BLOCK"
)

// ArgumentFormat classifies how a function's arguments are structured.
type ArgumentFormat string

const (
	ArgsJSON          ArgumentFormat = "JSON"
	ArgsTagged        ArgumentFormat = "TAGGED"
	ArgsKeyValueTags  ArgumentFormat = "KEY_VALUE_TAGS"
)

// CallIDPosition classifies where a call's id marker appears relative to
// the function name and its arguments.
type CallIDPosition string

const (
	CallIDNone              CallIDPosition = "NONE"
	CallIDPreFuncName       CallIDPosition = "PRE_FUNC_NAME"
	CallIDBetweenFuncAndArg CallIDPosition = "BETWEEN_FUNC_AND_ARGS"
	CallIDPostArgs          CallIDPosition = "POST_ARGS"
)

// CallID groups the three call-id fields of ToolCallStructure.
type CallID struct {
	Position CallIDPosition
	Prefix   string
	Suffix   string
}

// ToolCallStructure is Phase 2's result (spec §3).
type ToolCallStructure struct {
	SupportsTools bool

	FunctionFormat FunctionFormat

	SectionStart string
	SectionEnd   string

	PerCallStart string
	PerCallEnd   string

	FunctionPrefix    string
	FunctionSuffix    string
	FunctionClose     string
	FunctionNamespace string
	ArgsMarker        string
	IDMarker          string

	NameField     string
	ArgsField     string
	IDField       string
	FunctionField string
	GenIDField    string

	ArgumentFormat ArgumentFormat

	ArgPrefix    string
	ArgSuffix    string
	ArgClose     string
	ArgSeparator string

	ArgsStart string
	ArgsEnd   string

	ParameterOrder []string

	CallID CallID

	ToolsArrayWrapped bool
	FunNameIsKey      bool

	CodeBlockMarker   string
	CodeBlockLanguage string

	RequiresNonNullContent bool
}

// TemplateFingerprint is the combined, immutable result of analysis
// (spec §3). Once built it must never be mutated.
type TemplateFingerprint struct {
	Content         ContentStructure
	Tools           ToolCallStructure
	PreservedTokens []string
}
