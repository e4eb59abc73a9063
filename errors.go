package wisefetch

import (
	"errors"
	"fmt"
	"strings"
)

// Stable error codes exposed by every error wise-fetch itself constructs.
// Errors coming back from the fetch engine are passed through unchanged and
// keep whatever discriminators the engine gave them.
const (
	CodeInvalidArgType       = "ERR_INVALID_ARG_TYPE"
	CodeInvalidOptValue      = "ERR_INVALID_OPT_VALUE"
	CodeOptionUnconfigurable = "ERR_OPTION_UNCONFIGURABLE"
	CodeInvalidURLScheme     = "ERR_INVALID_URL_SCHEME"
	CodeInvalidURI           = "ERR_INVALID_URI"
)

// DiagnosticKind classifies a single validation failure.
type DiagnosticKind int

const (
	KindPlain DiagnosticKind = iota
	KindType
	KindRange
	KindURI
)

// String returns the kind name for logging and debug output.
func (k DiagnosticKind) String() string {
	switch k {
	case KindType:
		return "TypeError"
	case KindRange:
		return "RangeError"
	case KindURI:
		return "URIError"
	default:
		return "Error"
	}
}

// Diagnostic is one structured validation failure describing a single
// invalid field or argument. It is immutable once created.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

// OptionError is a single non-aggregated validation failure. Its Code
// discriminator allows programmatic matching without string comparison.
type OptionError struct {
	Kind    DiagnosticKind
	Message string
	code    string
}

func newOptionError(kind DiagnosticKind, code, format string, args ...any) *OptionError {
	return &OptionError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		code:    code,
	}
}

// Error implements error interface.
func (e *OptionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Code returns the stable error code, for example ERR_INVALID_OPT_VALUE.
func (e *OptionError) Code() string {
	if e == nil {
		return ""
	}
	return e.code
}

// Is compares error codes for errors.Is.
func (e *OptionError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*OptionError); ok {
		return e.code == targetErr.code
	}
	return false
}

// AggregateOptionError reports two or more diagnostics found in one
// validation pass. Diagnostics keep their discovery order; the message
// numbers them starting at 1.
type AggregateOptionError struct {
	Diagnostics []Diagnostic
}

// Error implements error interface.
func (e *AggregateOptionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors found in the options object:", len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, d.Message)
	}
	return b.String()
}

// ResponseError is returned when a response is classified as unsuccessful
// and the caller did not opt into resolveUnsuccessfulResponse. It carries
// the full response for inspection.
type ResponseError struct {
	Response     *Response
	Method       string
	RequestedURL string
}

// Error implements error interface. The final-URL suffix only appears when
// the engine followed redirects away from the originally dispatched URL.
func (e *ResponseError) Error() string {
	method := e.Method
	if method == "" {
		method = "GET"
	}
	msg := fmt.Sprintf("%d (%s) responded by a %s request to %s",
		e.Response.StatusCode, e.Response.StatusText, strings.ToUpper(method), e.RequestedURL)
	if e.Response.URL != "" && e.Response.URL != e.RequestedURL {
		msg += " that is finally redirected to " + e.Response.URL
	}
	return msg + "."
}

// ErrorCode extracts the stable code discriminator from any error produced
// by wise-fetch. It returns an empty string for engine pass-through errors
// and for errors that carry no code.
func ErrorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
