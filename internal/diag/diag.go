package diag

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. See the package documentation for the semantics
// of each kind.
type Kind int

const (
	Structural Kind = iota
	ValueResolution
	NumericType
)

// String returns a short human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case ValueResolution:
		return "value-resolution"
	case NumericType:
		return "numeric-type"
	default:
		return "unknown"
	}
}

// Error is a classified, optionally line-tagged error. Line is 1-based; zero
// means the originating source line is unknown.
type Error struct {
	Kind Kind
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// WithLine returns a copy of the error tagged with the given source line.
// Errors that already carry a line keep it.
func (e *Error) WithLine(line int) *Error {
	if e.Line > 0 {
		return e
	}
	return &Error{Kind: e.Kind, Line: line, Msg: e.Msg}
}

// Structuralf creates a Structural error.
func Structuralf(format string, args ...any) *Error {
	return &Error{Kind: Structural, Msg: fmt.Sprintf(format, args...)}
}

// Resolutionf creates a ValueResolution error.
func Resolutionf(format string, args ...any) *Error {
	return &Error{Kind: ValueResolution, Msg: fmt.Sprintf(format, args...)}
}

// Numericf creates a NumericType error.
func Numericf(format string, args ...any) *Error {
	return &Error{Kind: NumericType, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err if it is (or wraps) a diag.Error.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}

// IsValueResolution reports whether err is a value-resolution failure, the
// only kind the expansion and summation algorithms are allowed to skip.
func IsValueResolution(err error) bool {
	k, ok := KindOf(err)
	return ok && k == ValueResolution
}

// IsStructural reports whether err is a structural failure.
func IsStructural(err error) bool {
	k, ok := KindOf(err)
	return ok && k == Structural
}

// Record is one accumulated diagnostic: the source line it originated from
// and the rendered message.
type Record struct {
	Line    int
	Message string
}

// Reporter accumulates (line, message) diagnostics alongside a count of
// successfully processed statements for one parse session.
type Reporter struct {
	records   []Record
	processed int
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report records err against the given source line. Errors that already
// carry a line keep their own.
func (r *Reporter) Report(line int, err error) {
	if err == nil {
		return
	}
	var de *Error
	if errors.As(err, &de) && de.Line > 0 {
		line = de.Line
	}
	msg := err.Error()
	if de != nil {
		msg = de.Msg
	}
	r.records = append(r.records, Record{Line: line, Message: msg})
}

// StatementProcessed bumps the count of successfully handled statements.
func (r *Reporter) StatementProcessed() {
	r.processed++
}

// Processed returns the number of successfully handled statements.
func (r *Reporter) Processed() int {
	return r.processed
}

// Records returns the accumulated diagnostics in report order.
func (r *Reporter) Records() []Record {
	return r.records
}

// HasErrors reports whether any diagnostics were recorded.
func (r *Reporter) HasErrors() bool {
	return len(r.records) > 0
}
