// internal/flow/errors.go
package flow

import (
	"errors"
	"fmt"
)

// Sentinel errors for each failure kind. Session implementations wrap these
// with %w so the runner can classify what went wrong.
var (
	ErrNavigation      = errors.New("navigation error")
	ErrElementNotFound = errors.New("element not found")
	ErrIO              = errors.New("io error")
	ErrSession         = errors.New("session error")
	ErrInput           = errors.New("test input error")
	ErrInvalidAction   = errors.New("invalid action")
)

// ErrorKind is the classification surfaced for a failed action.
type ErrorKind string

const (
	KindNavigationError      ErrorKind = "NavigationError"
	KindElementNotFoundError ErrorKind = "ElementNotFoundError"
	KindIOError              ErrorKind = "IOError"
	KindSessionError         ErrorKind = "SessionError"
	KindInputError           ErrorKind = "InputError"
	KindInvalidActionError   ErrorKind = "InvalidActionError"
)

var kindSentinels = map[ErrorKind]error{
	KindNavigationError:      ErrNavigation,
	KindElementNotFoundError: ErrElementNotFound,
	KindIOError:              ErrIO,
	KindSessionError:         ErrSession,
	KindInputError:           ErrInput,
	KindInvalidActionError:   ErrInvalidAction,
}

// Classify returns the kind of err. Anything not wrapping a known sentinel is
// treated as a failure of the underlying session.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNavigation):
		return KindNavigationError
	case errors.Is(err, ErrElementNotFound):
		return KindElementNotFoundError
	case errors.Is(err, ErrIO):
		return KindIOError
	case errors.Is(err, ErrInput):
		return KindInputError
	case errors.Is(err, ErrInvalidAction):
		return KindInvalidActionError
	default:
		return KindSessionError
	}
}

// ActionError reports the action that aborted a flow.
type ActionError struct {
	Index  int
	Action Action
	Kind   ErrorKind
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d %s failed (%s): %v", e.Index, e.Action, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the cause, so errors.Is matches
// either one.
func (e *ActionError) Unwrap() []error {
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		return []error{sentinel, e.Err}
	}
	return []error{e.Err}
}

func newActionError(index int, action Action, err error) *ActionError {
	return &ActionError{Index: index, Action: action, Kind: Classify(err), Err: err}
}
