// Package availability decides whether a room can take a reservation for a
// given time interval. Everything here is a pure function of its inputs: the
// caller supplies a consistent snapshot of the room's reservations and is
// responsible for committing under a per-room serialization point.
package availability

import (
	"time"

	"meetingrooms/internal/domain"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// only touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Conflicts returns the active reservations in existing that overlap
// candidate, skipping the one with excludeID (0 excludes nothing).
func Conflicts(candidate Interval, existing []domain.Reservation, excludeID int64) []domain.Reservation {
	var out []domain.Reservation
	for _, r := range existing {
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if !r.IsActive() {
			continue
		}
		if Overlaps(candidate, Interval{Start: r.StartAt, End: r.EndAt}) {
			out = append(out, r)
		}
	}
	return out
}

// Validate approves or rejects a reservation of room for [start, end).
// excludeID names the reservation being updated so it does not conflict
// with itself. Rejections are ErrRoomInactive, ErrInvalidInterval or a
// *ConflictError, checked in that order.
func Validate(room domain.Room, start, end time.Time, existing []domain.Reservation, excludeID int64) error {
	if !room.IsActive {
		return ErrRoomInactive
	}

	candidate := Interval{Start: start, End: end}
	if !candidate.Valid() {
		return ErrInvalidInterval
	}

	conflicts := Conflicts(candidate, existing, excludeID)
	if len(conflicts) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(conflicts))
	for _, r := range conflicts {
		ids = append(ids, r.ID)
	}
	return &ConflictError{ReservationIDs: ids}
}

// CheckAvailability reports whether [start, end) is free of active
// reservations in existing.
func CheckAvailability(start, end time.Time, existing []domain.Reservation) (bool, error) {
	candidate := Interval{Start: start, End: end}
	if !candidate.Valid() {
		return false, ErrInvalidInterval
	}
	return len(Conflicts(candidate, existing, 0)) == 0, nil
}
