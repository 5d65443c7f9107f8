// File: internal/resolve/errors.go
package resolve

import "errors"

var (
	// ErrNotFound means every standard candidate and every healing strategy
	// was exhausted (or healing was impossible). It is fatal for the action
	// that requested the element.
	ErrNotFound = errors.New("element not found: standard and self-healing strategies exhausted")

	// ErrAllHealingFailed is the healing engine's terminal outcome. The
	// orchestrator folds it into ErrNotFound before callers see it.
	ErrAllHealingFailed = errors.New("all self-healing strategies failed")

	// ErrNoFingerprint means healing was requested for a descriptor that
	// carries no recovery metadata.
	ErrNoFingerprint = errors.New("descriptor has no fingerprint; healing skipped")
)
