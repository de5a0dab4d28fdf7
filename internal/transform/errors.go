package transform

import (
	"errors"
	"fmt"

	"github.com/looptx/looptx/internal/ir"
)

// Code categorizes transform failures. The set is closed; drivers switch
// over it when deciding whether a script can continue.
type Code string

const (
	// CodeUnknownHandle indicates a handle that was never bound, was already
	// consumed, or whose element no longer references live IR.
	CodeUnknownHandle Code = "UNKNOWN_HANDLE"

	// CodeNoSuchAncestor indicates an element with fewer enclosing loops
	// than requested.
	CodeNoSuchAncestor Code = "NO_SUCH_ANCESTOR"

	// CodeNoSymbolTableAncestor indicates an outline target whose payload
	// root has no symbol table to allocate the new func name in.
	CodeNoSymbolTableAncestor Code = "NO_SYMBOL_TABLE_ANCESTOR"

	// CodeAlreadyDivisible indicates a peel target whose iteration count is
	// already provably divisible by its step.
	CodeAlreadyDivisible Code = "ALREADY_DIVISIBLE"

	// CodeLoopTooShortToPipeline indicates a pipeline target whose trip
	// count cannot be proven to cover the read latency.
	CodeLoopTooShortToPipeline Code = "LOOP_TOO_SHORT_TO_PIPELINE"

	// CodeUnsupportedMemoryOp indicates a pipeline target whose body
	// contains a memory operation outside the supported structured class.
	CodeUnsupportedMemoryOp Code = "UNSUPPORTED_MEMORY_OP"

	// CodeInvalidAttribute indicates an attribute constraint violation, or
	// a handle element whose kind the operation cannot apply to.
	CodeInvalidAttribute Code = "INVALID_ATTRIBUTE"
)

// Error is the structured failure every transform operation reports.
// Element is the zero-based index into the input list of the offending
// element, or -1 when the failure is not tied to a particular element.
type Error struct {
	Code    Code
	Op      string
	Element int
	Message string
}

func (e *Error) Error() string {
	if e.Element >= 0 {
		return fmt.Sprintf("%s: %s (op=%s, element=%d)", e.Code, e.Message, e.Op, e.Element)
	}
	return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
}

// IsCode reports whether err is (or wraps) a transform Error with the given
// code.
func IsCode(err error, code Code) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

func newError(code Code, op string, element int, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Element: element, Message: fmt.Sprintf(format, args...)}
}

// Status is the outcome for one input-list element of a per-element
// operation. Err is nil for elements that were transformed (or legitimately
// forwarded unchanged).
type Status struct {
	Index int
	Err   *Error
}

// Outcome is what a per-element operation returns: the payload for its
// result handle (successful elements only, input order preserved) and the
// per-element statuses collected so far. When the operation stopped early,
// Statuses covers only the elements that were reached.
type Outcome struct {
	Outputs  []ir.OpRef
	Statuses []Status
}

// failed reports whether any reached element failed.
func (o Outcome) failed() *Error {
	for _, s := range o.Statuses {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}
