package account

import "errors"

var (
	ErrUserNotFound       = errors.New("account not found")
	ErrAlreadyScheduled   = errors.New("a deletion is already scheduled for this account")
	ErrNotScheduled       = errors.New("no deletion is scheduled for this account")
	ErrGraceWindowElapsed = errors.New("the grace window has already elapsed")
	ErrInvalidGracePeriod = errors.New("grace period must be 0, 7, 14 or 30 days")
	ErrCancelNotAllowed   = errors.New("this scheduled deletion cannot be cancelled")
)
