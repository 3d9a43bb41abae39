package internal

import "fmt"

// ErrorKind classifies script-level errors raised by the object model.
type ErrorKind int

const (
	// SealedViolation is raised when adding or removing a property of a
	// sealed object.
	SealedViolation ErrorKind = iota + 1
	// InvalidAttributeValue is raised when attribute bits fall outside the
	// defined set or UninitializedConst lacks ReadOnly and Permanent.
	InvalidAttributeValue
	// UnresolvedReference is raised when an identifier is not found anywhere
	// in the scope chain.
	UnresolvedReference
	// RedeclarationConflict is raised when a declaration is incompatible
	// with an existing binding, or a const is initialized twice.
	RedeclarationConflict
	// TypeError is raised in strict mode for writes to read-only properties,
	// creation on non-extensible objects, and deletion of permanent
	// properties, and in any mode for invalid redefinitions.
	TypeError
	// PropertyNotFound is raised by attribute operations on absent
	// properties.
	PropertyNotFound
	// CyclicChain is raised when assigning a prototype or parent scope would
	// make the chain cyclic.
	CyclicChain
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case SealedViolation:
		return "SealedViolation"
	case InvalidAttributeValue:
		return "InvalidAttributeValue"
	case UnresolvedReference:
		return "UnresolvedReference"
	case RedeclarationConflict:
		return "RedeclarationConflict"
	case TypeError:
		return "TypeError"
	case PropertyNotFound:
		return "PropertyNotFound"
	case CyclicChain:
		return "CyclicChain"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a script-level error produced by the object model. The running
// script may catch these.
type Error struct {
	// Kind is the class of the error.
	Kind ErrorKind
	// Key is the property or identifier involved, if any.
	Key Key
	// Msg describes the error.
	Msg string
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrSealed) matches any sealed violation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrSealed           error = &Error{Kind: SealedViolation}
	ErrInvalidAttribute error = &Error{Kind: InvalidAttributeValue}
	ErrUnresolved       error = &Error{Kind: UnresolvedReference}
	ErrRedeclaration    error = &Error{Kind: RedeclarationConflict}
	ErrType             error = &Error{Kind: TypeError}
	ErrNoProperty       error = &Error{Kind: PropertyNotFound}
	ErrCyclic           error = &Error{Kind: CyclicChain}
)

// newError creates an *Error with a formatted message.
func newError(kind ErrorKind, key Key, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Key: key, Msg: fmt.Sprintf(format, args...)}
}
