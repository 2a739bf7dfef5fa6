package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Business errors surfaced by the ledger. Handlers map these onto stable
// HTTP status codes; anything else is an infrastructure failure.
var (
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("teacher is not active")
	ErrAlreadyComplete = errors.New("attendance already marked for today")
	ErrUnavailable     = errors.New("attendance store unavailable")
)

// TooEarlyError rejects a check-out attempted before the minimum interval
// has elapsed since check-in. Remaining is rounded up to whole minutes so a
// terminal can display "try again in N minutes".
type TooEarlyError struct {
	Elapsed   time.Duration
	Remaining int64
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf(
		"check-out not allowed, minimum interval between check-in and check-out not reached, current difference: %d minutes",
		int64(e.Elapsed/time.Minute),
	)
}

// ConflictError reports a duplicate unique key on the teacher-creation path.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("teacher with this %s already exists", e.Field)
}
