// pkg/pom/errors.go
package pom

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

// Sentinels for errors.Is. Every typed error below matches exactly one of them.
var (
	ErrNotLocatable         = errors.New("component must have a locator to be treated as an element")
	ErrUnsupportedCondition = errors.New("unsupported condition")
	ErrTimeout              = errors.New("timed out waiting for condition")
	ErrMissingAttribute     = errors.New("missing attribute")
)

// ErrRestoreContext is wrapped into the error of an interaction after which
// focus could not be returned to the top-level document.
var ErrRestoreContext = errors.New("restore default content")

// NotLocatableError is returned when an element-level action is attempted on a
// component declared without a locator.
type NotLocatableError struct {
	Component string
}

func (e *NotLocatableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, ErrNotLocatable)
}

func (e *NotLocatableError) Is(target error) bool { return target == ErrNotLocatable }

// ElementNotFoundError is returned when the backend lookup found no match. It
// unwraps to the backend error, which wraps driver.ErrNoSuchElement.
type ElementNotFoundError struct {
	Component string
	Locator   driver.Locator
	Err       error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s: element not found (%s): %v", e.Component, e.Locator, e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// UnsupportedConditionError is returned when a named wait condition is unknown
// to both the component and the global registry.
type UnsupportedConditionError struct {
	Name string
}

func (e *UnsupportedConditionError) Error() string {
	return fmt.Sprintf("condition '%s' is not supported", e.Name)
}

func (e *UnsupportedConditionError) Is(target error) bool { return target == ErrUnsupportedCondition }

// TimeoutError is returned when a poll-wait exceeds its deadline.
type TimeoutError struct {
	Component string
	Condition string
	Negated   bool
	Timeout   time.Duration
	// Last is the last non-fatal error observed while polling, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	verb := "until"
	if e.Negated {
		verb = "until not"
	}
	msg := fmt.Sprintf("%s: timed out after %v waiting %s '%s'", e.Component, e.Timeout, verb, e.Condition)
	if e.Last != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.Last)
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// MissingAttributeError is returned when a deferred lookup matches neither a
// declared member nor a live element capability. It names the component, not
// the element, since the usual cause is a missing declaration.
type MissingAttributeError struct {
	Component string
	Name      string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("'%s' object has no attribute '%s'", e.Component, e.Name)
}

func (e *MissingAttributeError) Is(target error) bool { return target == ErrMissingAttribute }

// IsNotFound reports whether err signals a failed element lookup.
func IsNotFound(err error) bool {
	return errors.Is(err, driver.ErrNoSuchElement)
}
