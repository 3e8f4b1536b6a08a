package analytics

import (
	"errors"
	"fmt"
)

// Code distinguishes hard analysis failures.
type Code string

const (
	CodeEmptySeries    Code = "EMPTY_SERIES"
	CodeInvalidBar     Code = "INVALID_BAR"
	CodeDivisionByZero Code = "DIVISION_BY_ZERO"
	CodeOverflow       Code = "NUMERIC_OVERFLOW"
)

// Error is a hard failure that aborts an analysis. The computation is
// deterministic, so callers should not retry on it.
type Error struct {
	Code Code
	// Index is the offending bar for CodeInvalidBar; -1 means the reference bar.
	Index  int
	Reason string
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeInvalidBar:
		if e.Index < 0 {
			return "invalid reference bar: " + e.Reason
		}
		return fmt.Sprintf("invalid bar at index %d: %s", e.Index, e.Reason)
	default:
		return e.Reason
	}
}

// Is matches any *Error with the same Code, so errors.Is(err, ErrInvalidBar)
// holds regardless of index or reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrEmptySeries    = &Error{Code: CodeEmptySeries, Reason: "price series has no bars"}
	ErrInvalidBar     = &Error{Code: CodeInvalidBar, Reason: "malformed bar"}
	ErrDivisionByZero = &Error{Code: CodeDivisionByZero, Reason: "reference close is zero"}
	ErrOverflow       = &Error{Code: CodeOverflow, Reason: "metric is not a finite number"}
)

// CodeOf extracts the failure code from err, if it is an analysis error.
func CodeOf(err error) (Code, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code, true
	}
	return "", false
}

func invalidBar(index int, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidBar, Index: index, Reason: fmt.Sprintf(format, args...)}
}

func overflow(metric string) *Error {
	return &Error{Code: CodeOverflow, Reason: metric + " is not a finite number"}
}
