// Package events carries reservation lifecycle notifications to Kafka and
// to websocket subscribers of a room.
package events

import (
	"context"
	"errors"
	"time"

	"meetingrooms/internal/domain"

	"github.com/google/uuid"
)

type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationUpdated   Type = "reservation.updated"
	ReservationCancelled Type = "reservation.cancelled"
	ReservationDeleted   Type = "reservation.deleted"
)

type Event struct {
	ID            string                   `json:"id"`
	Type          Type                     `json:"type"`
	RoomID        int64                    `json:"room_id"`
	ReservationID int64                    `json:"reservation_id"`
	Owner         string                   `json:"owner"`
	StartAt       time.Time                `json:"start_at"`
	EndAt         time.Time                `json:"end_at"`
	Status        domain.ReservationStatus `json:"status"`
	OccurredAt    time.Time                `json:"occurred_at"`

	// PreviousRoomID is set when an update moved the reservation out of
	// another room; subscribers of that room receive the event too.
	PreviousRoomID int64 `json:"previous_room_id,omitempty"`
}

func NewEvent(t Type, r domain.Reservation) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          t,
		RoomID:        r.RoomID,
		ReservationID: r.ID,
		Owner:         r.Owner,
		StartAt:       r.StartAt,
		EndAt:         r.EndAt,
		Status:        r.Status,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher delivers events after the reservation change has committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
