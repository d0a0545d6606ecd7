package ucsm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned by operations that need a cookie when
	// the session is not logged in (or has been logged out).
	ErrNotAuthenticated = errors.New("ucsm: session not authenticated")

	// ErrMalformedReply is wrapped by a FatalError when the reply is not valid
	// XML or lacks an element or attribute the operation expects.
	ErrMalformedReply = errors.New("ucsm: malformed reply")

	// ErrMissingAttribute is matched by MissingAttributeError.
	ErrMissingAttribute = errors.New("ucsm: missing attribute")
)

// FatalError is a transport failure or a reply that cannot be understood.  The
// session state is unknown after a FatalError.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("ucsm: %v", e.Err)
	}
	return fmt.Sprintf("ucsm: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func malformed(op string, format string, args ...any) *FatalError {
	return &FatalError{
		Op:  op,
		Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedReply}, args...)...),
	}
}

// ResponseError is an error reported by the appliance itself through the
// errorCode and errorDescr attributes of a reply.  The session and transport
// are still usable.
type ResponseError struct {
	Method      string
	Code        int
	Description string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("ucsm: %s: error %d: %s", e.Method, e.Code, e.Description)
}

// TypeMismatchError is returned when a filter expression is composed with
// something that is not a filter.
type TypeMismatchError struct {
	Value any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("ucsm: expected *PropertyFilter or *ComposeFilter, got %#v", e.Value)
}

// MissingAttributeError is returned when a managed object has neither an
// attribute nor a field of the requested name.
type MissingAttributeError struct {
	Class string
	Name  string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("ucsm: %s has no attribute %q", e.Class, e.Name)
}

func (e *MissingAttributeError) Is(target error) bool {
	return target == ErrMissingAttribute
}
