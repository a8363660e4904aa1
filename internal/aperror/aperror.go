// Package aperror defines the typed error kinds shared across the
// analyzer, fingerprint, PEG builder and mapper, per the error handling
// design: most kinds are recoverable and handled at the call site, only
// UnsupportedCombination is meant to surface to the caller of the parser
// builder.
package aperror

import "fmt"

// Kind identifies one of the error kinds a caller may want to branch on
// with errors.Is.
type Kind int

const (
	// ProbeRenderFailure: a template render during probing raised; the
	// probe's output is treated as empty and analysis falls through to
	// the next probe.
	ProbeRenderFailure Kind = iota
	// UnknownFormat: a tool-structure sub-probe could not classify the
	// format; supports_tools is set false but reasoning/content
	// detection still proceeds.
	UnknownFormat
	// UnsupportedCombination: the fingerprint names a format the PEG
	// builder has no construction for. Fatal — surfaced to the caller.
	UnsupportedCombination
	// PartialInput: expected mid-stream condition in the mapper, handled
	// by buffering rather than erroring.
	PartialInput
	// JsonParseError: an argument fragment failed to parse as JSON; the
	// mapper recovers by falling back to string-value treatment.
	JsonParseError
)

func (k Kind) String() string {
	switch k {
	case ProbeRenderFailure:
		return "probe_render_failure"
	case UnknownFormat:
		return "unknown_format"
	case UnsupportedCombination:
		return "unsupported_combination"
	case PartialInput:
		return "partial_input"
	case JsonParseError:
		return "json_parse_error"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error, matchable with errors.Is against the
// sentinel values below.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, aperror.UnsupportedCombinationErr) style
// comparisons by Kind rather than identity.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an *Error of the given kind, wrapping cause (which may be nil).
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel values for errors.Is(err, aperror.ErrUnsupportedCombination).
var (
	ErrProbeRenderFailure     = &Error{Kind: ProbeRenderFailure}
	ErrUnknownFormat          = &Error{Kind: UnknownFormat}
	ErrUnsupportedCombination = &Error{Kind: UnsupportedCombination}
	ErrPartialInput           = &Error{Kind: PartialInput}
	ErrJSONParseError         = &Error{Kind: JsonParseError}
)
