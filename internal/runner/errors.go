// File: internal/runner/errors.go
package runner

import (
	"errors"
	"fmt"

	"github.com/varekai/stepright/api/schemas"
)

// ErrMissingInput marks an action that cannot run because a required input is
// absent; there is no fallback strategy for it, so it is never retried.
var ErrMissingInput = errors.New("action is missing a required input")

// ErrAssertionFailed marks an assertion action whose expectation did not hold.
var ErrAssertionFailed = errors.New("assertion failed")

func missingInput(kind schemas.ActionKind, what string) error {
	return fmt.Errorf("%w: %s action requires %s", ErrMissingInput, kind, what)
}
