package models

import "errors"

// Error taxonomy shared by every component.
var (
	// Account & access
	ErrNoAccount = errors.New("no account context")
	ErrForbidden = errors.New("forbidden")

	// Resource / state
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrJobTerminal       = errors.New("job is in a terminal state")
	ErrJobCancelled      = errors.New("job cancelled")

	// Templates & rendering
	ErrUndefinedVariable      = errors.New("undefined variable")
	ErrNoTemplate             = errors.New("no template for category")
	ErrConflictingCurrent     = errors.New("conflicting current version")
	ErrDuplicateVersionNumber = errors.New("duplicate version number")

	// Generation
	ErrParse               = errors.New("response parse error")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrTimeout             = errors.New("timeout")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrUnsafeContent       = errors.New("unsafe content")

	// Worker
	ErrStallReclaim = errors.New("stalled job reclaimed")

	// General request errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")
)

var retryable = []error{
	ErrRateLimited,
	ErrProviderUnavailable,
	ErrTimeout,
	ErrConflictingCurrent,
	ErrDuplicateVersionNumber,
	ErrStallReclaim,
}

// IsRetryable reports whether err belongs to a transient kind.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range retryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
