package errcode

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Caller sequencing bug: the bus is not in a state that permits the op.
	InvalidState Code = "invalid_state"
	// The platform collaborator failed a bring-up/teardown/arm/disarm call.
	PlatformFailure Code = "platform_failure"
	// Deinit has begun; the worker should leave its loop.
	ShutdownInProgress Code = "shutdown_in_progress"

	InvalidParams Code = "invalid_params"
	Timeout       Code = "timeout"

	Error Code = "error" // generic fallback
)

// E keeps the operation and the platform cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.InvalidState) match a wrapped *E.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Wrap returns nil for a nil cause, otherwise a PlatformFailure for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: PlatformFailure, Op: op, Err: err}
}
