package availability

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval = errors.New("end time must be after start time")
	ErrRoomInactive    = errors.New("room is not active for reservations")
	ErrTimeConflict    = errors.New("room is already reserved for the requested time")
)

// ConflictError lists the reservations that overlap a rejected candidate.
// It matches ErrTimeConflict under errors.Is.
type ConflictError struct {
	ReservationIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: conflicting reservations %v", ErrTimeConflict, e.ReservationIDs)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}
