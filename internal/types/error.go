package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures so callers can decide whether to
// retry, wait or escalate.
type ErrorKind string

const (
	KindAuthorization ErrorKind = "AUTHORIZATION"
	KindPrecondition  ErrorKind = "PRECONDITION"
	KindLiquidity     ErrorKind = "LIQUIDITY"
	KindSlippage      ErrorKind = "SLIPPAGE"
	KindInternal      ErrorKind = "INTERNAL"
)

func (k ErrorKind) String() string {
	return string(k)
}

// Error is the failure type returned by every engine operation. Op names
// the operation that rejected the call.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NewErrorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
