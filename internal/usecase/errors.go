package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// EventMismatchError is returned when a query names an event other than the one
// the cached leaderboard belongs to. It matches ErrNotFound.
type EventMismatchError struct {
	RequestedEventID int64
	CurrentEventID   int64
}

func (e *EventMismatchError) Error() string {
	return fmt.Sprintf("no data available for event %d (current event %d)", e.RequestedEventID, e.CurrentEventID)
}

func (e *EventMismatchError) Is(target error) bool {
	return target == ErrNotFound
}
