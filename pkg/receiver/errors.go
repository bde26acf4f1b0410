package receiver

import (
	"errors"
	"strings"
)

var (
	// ErrNotBegun indicates an operation that needs a successful Begin
	// first.
	ErrNotBegun = errors.New("receiver not begun")
)

// TeardownError reports the steps of End that failed. End runs every
// teardown step even after one fails, so the port is always released;
// the failures are collected here.
type TeardownError struct {
	Steps []error
}

// Error implements error.
func (e *TeardownError) Error() string {
	msgs := make([]string, len(e.Steps))
	for i, err := range e.Steps {
		msgs[i] = err.Error()
	}
	return "teardown: " + strings.Join(msgs, "; ")
}

// collect records the non-nil errors among errs.
func (e *TeardownError) collect(errs ...error) {
	for _, err := range errs {
		if err != nil {
			e.Steps = append(e.Steps, err)
		}
	}
}

// err reduces the collected failures: nil when every step succeeded,
// the failure itself when only one step failed.
func (e *TeardownError) err() error {
	switch len(e.Steps) {
	case 0:
		return nil
	case 1:
		return e.Steps[0]
	default:
		return e
	}
}
