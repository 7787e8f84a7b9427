package domain

import "time"

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID      int64             `json:"id" gorm:"primaryKey"`
	RoomID  int64             `json:"room_id" gorm:"not null;index"`
	Owner   string            `json:"owner" gorm:"size:200;not null;index"`
	UserID  *int64            `json:"user_id,omitempty" gorm:"index"`
	StartAt time.Time         `json:"start_at" gorm:"not null;index"`
	EndAt   time.Time         `json:"end_at" gorm:"not null;index"`
	Status  ReservationStatus `json:"status" gorm:"size:16;not null;index"`

	Description string `json:"description,omitempty" gorm:"type:text"`

	// Catering
	CoffeeNeeded   bool   `json:"coffee_needed"`
	CoffeeQuantity *int   `json:"coffee_quantity,omitempty"`
	CoffeeNotes    string `json:"coffee_notes,omitempty" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	Room *Room `json:"room,omitempty" gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

// IsActive reports whether the reservation takes part in overlap checks.
func (r Reservation) IsActive() bool {
	return r.Status == ReservationActive
}
