package sentinel

import "fmt"

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is an immutable error type backed by a string constant.
// Unlike errors.New, which returns a pointer and must be stored in a var,
// Error values can be declared as const, preventing reassignment.
//
// errors.Is compatibility: since Error is a comparable type, the default
// == comparison used by errors.Is works correctly through wrapped error chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

// Errorf builds an Error from a format string. Unlike fmt.Errorf, the
// result has no wrapped operand: it is a fresh, comparable sentinel value,
// not a formatted wrapper around an existing error. Use this to build a
// message from values (e.g. an offending argument); it is not a
// substitute for fmt.Errorf("...: %w", err) when propagating a cause.
func Errorf(format string, args ...any) Error {
	return Error(fmt.Sprintf(format, args...))
}
