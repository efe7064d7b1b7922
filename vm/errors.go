package vm

import (
	"errors"
	"fmt"
)

// Kind classifies a failure raised while executing a program.
type Kind int

const (
	KindSyntax        Kind = iota + 1 // malformed literal, variable name, arity or loop structure
	KindInvalidOp                     // unrecognized opcode
	KindUndefinedVar                  // READ_VAR of a name never written
	KindStackOverflow                 // push onto a full operand stack
	KindInternal                      // empty-stack pop, division by zero
)

// Sentinel errors, one per Kind. Every *Error unwraps to one of these.
var (
	ErrSyntax        = errors.New("syntax error")
	ErrInvalidOp     = errors.New("invalid operation")
	ErrUndefinedVar  = errors.New("undefined variable")
	ErrStackOverflow = errors.New("stack overflow")
	ErrInternal      = errors.New("internal error")
)

var kindNames = map[Kind]string{
	KindSyntax:        "syntax",
	KindInvalidOp:     "invalid-op",
	KindUndefinedVar:  "undefined-var",
	KindStackOverflow: "stack-overflow",
	KindInternal:      "internal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel returns the sentinel error for the kind, or nil.
func (k Kind) Sentinel() error {
	switch k {
	case KindSyntax:
		return ErrSyntax
	case KindInvalidOp:
		return ErrInvalidOp
	case KindUndefinedVar:
		return ErrUndefinedVar
	case KindStackOverflow:
		return ErrStackOverflow
	case KindInternal:
		return ErrInternal
	}
	return nil
}

// Error is the error type returned by the engine and the dispatch loop.
// Line is the 1-based source line of the failing instruction, or 0 when
// the failure did not come from a specific line.
type Error struct {
	Kind Kind
	Msg  string
	Line int
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind.Sentinel(), e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Sentinel(), e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind.Sentinel()
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// AtLine returns a copy of err stamped with line. Errors that are not
// *Error, or that already carry a line, are returned unchanged.
func AtLine(err error, line int) error {
	var e *Error
	if !errors.As(err, &e) || e.Line != 0 {
		return err
	}
	stamped := *e
	stamped.Line = line
	return &stamped
}

// KindOf reports the Kind of err, or 0 if err is not a VM error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
