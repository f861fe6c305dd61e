package options

import (
	"errors"
	"fmt"
)

// CoercionError reports a raw value that cannot be interpreted as its
// declared kind. It is fatal for the owning section's parse pass.
type CoercionError struct {
	// Option is the declared option name.
	Option string

	// RawValue is the as-read string that failed to coerce.
	RawValue string

	// Kind is the declared kind the value was checked against.
	Kind Kind
}

// Error implements the error interface.
func (e *CoercionError) Error() string {
	return fmt.Sprintf("option %s: cannot interpret %q as %s", e.Option, e.RawValue, e.Kind)
}

// RequirednessError reports a mandatory option missing with no default.
// It is fatal for the owning section's parse pass.
type RequirednessError struct {
	// Option is the declared option name.
	Option string
}

// Error implements the error interface.
func (e *RequirednessError) Error() string {
	return fmt.Sprintf("option %s: mandatory value missing with no default", e.Option)
}

// AsCoercionError reports whether err is a CoercionError, assigning it to
// target when it is.
func AsCoercionError(err error, target **CoercionError) bool {
	return errors.As(err, target)
}

// IsResolveError reports whether err is one of the two option-resolution
// error kinds.
func IsResolveError(err error) bool {
	var cerr *CoercionError
	var rerr *RequirednessError
	return errors.As(err, &cerr) || errors.As(err, &rerr)
}
