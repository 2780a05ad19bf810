package pathway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is matched by every pattern compilation failure.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrParamDecode is matched by every parameter decoding failure.
	ErrParamDecode = errors.New("parameter decode failed")

	// ErrNoMatch can be returned from an OnNoMatch hook to make Navigate fail
	// for unrouted paths. Without such a hook an unmatched path is not an error.
	ErrNoMatch = errors.New("no route matched path")

	// ErrHandlerPanic is matched by errors reported for recovered handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrMatchTimeout is returned when the matching engine gives up on a path.
	ErrMatchTimeout = errors.New("route match timed out")
)

// InvalidPatternError describes a route specification that could not be
// compiled.
type InvalidPatternError struct {
	Pattern string
	Reason  string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	msg := fmt.Sprintf("invalid route pattern %q", e.Pattern)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }
func (e *InvalidPatternError) Unwrap() error        { return e.Err }

// ParamDecodeError is attached to a single Param whose captured value is not
// a valid percent-encoded string. The match itself still succeeds.
type ParamDecodeError struct {
	Key string
	Raw string
	Err error
}

func (e *ParamDecodeError) Error() string {
	return fmt.Sprintf("decode parameter %q from %q: %v", e.Key, e.Raw, e.Err)
}

func (e *ParamDecodeError) Is(target error) bool { return target == ErrParamDecode }
func (e *ParamDecodeError) Unwrap() error        { return e.Err }

// HandlerPanicError wraps a value recovered from a panicking handler when the
// router runs with WithRecover.
type HandlerPanicError struct {
	Route string
	Path  string
	Value any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("route %s: handler panicked on %q: %v", e.Route, e.Path, e.Value)
}

func (e *HandlerPanicError) Is(target error) bool { return target == ErrHandlerPanic }

// Unwrap exposes the panic value when it was itself an error.
func (e *HandlerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
