package reservation

import "time"

type CreateReservationRequest struct {
	RoomID         int64     `json:"room_id" binding:"required,min=1"`
	Owner          string    `json:"owner" binding:"required,max=200"`
	StartAt        time.Time `json:"start_at" binding:"required"`
	EndAt          time.Time `json:"end_at" binding:"required"`
	Description    string    `json:"description"`
	CoffeeNeeded   bool      `json:"coffee_needed"`
	CoffeeQuantity *int      `json:"coffee_quantity" binding:"omitempty,min=1"`
	CoffeeNotes    string    `json:"coffee_notes"`
}

// UpdateReservationRequest is partial: nil fields are left unchanged.
type UpdateReservationRequest struct {
	RoomID         *int64     `json:"room_id" binding:"omitempty,min=1"`
	Owner          *string    `json:"owner" binding:"omitempty,min=1,max=200"`
	StartAt        *time.Time `json:"start_at"`
	EndAt          *time.Time `json:"end_at"`
	Description    *string    `json:"description"`
	CoffeeNeeded   *bool      `json:"coffee_needed"`
	CoffeeQuantity *int       `json:"coffee_quantity" binding:"omitempty,min=1"`
	CoffeeNotes    *string    `json:"coffee_notes"`
}

type ListQuery struct {
	Skip   int        `form:"skip" binding:"min=0"`
	Limit  int        `form:"limit" binding:"min=0,max=1000"`
	RoomID int64      `form:"room_id" binding:"min=0"`
	Owner  string     `form:"owner"`
	From   *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityQuery struct {
	Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AvailabilityResponse struct {
	RoomID    int64     `json:"room_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}
