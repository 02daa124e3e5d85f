package job

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error crossing the engine/implementation boundary
// wraps exactly one of these sentinels so callers can branch with errors.Is
// without depending on implementation error types.
var (
	ErrWrongInputCount  = errors.New("wrong number of inputs")
	ErrWrongOutputCount = errors.New("wrong number of outputs")
	ErrInvalidParams    = errors.New("invalid parameters")
	ErrMissingPatterns  = errors.New("missing or malformed patterns")
	ErrInvalidData      = errors.New("invalid data")
	ErrIO               = errors.New("i/o failure")
)

// Error attributes a failure kind to a single task. Validation-phase errors
// carry one of the configuration kinds and are never masked by later
// perform-phase failures.
type Error struct {
	Task string
	Kind error
	Err  error
}

// Errorf builds a task-attributed error of the given kind.
func Errorf(kind error, task, format string, args ...any) *Error {
	return &Error{Task: task, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapIO converts an arbitrary perform-phase error into an ErrIO-kinded
// failure, unless it is already a task-attributed error.
func WrapIO(task string, err error) error {
	if err == nil {
		return nil
	}
	var je *Error
	if errors.As(err, &je) {
		return err
	}
	return &Error{Task: task, Kind: ErrIO, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("task %s: %v", e.Task, e.Kind)
	}
	return fmt.Sprintf("task %s: %v: %v", e.Task, e.Kind, e.Err)
}

// Is matches the error against its kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a validation-phase failure (as
// opposed to a data or i/o failure during perform).
func IsConfigError(err error) bool {
	return errors.Is(err, ErrWrongInputCount) ||
		errors.Is(err, ErrWrongOutputCount) ||
		errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrMissingPatterns)
}
