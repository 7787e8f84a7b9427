package room

type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Location    string `json:"location" binding:"required,max=100"`
	Capacity    *int   `json:"capacity" binding:"omitempty,min=1"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// UpdateRoomRequest is partial: nil fields are left unchanged.
type UpdateRoomRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Location    *string `json:"location" binding:"omitempty,min=1,max=100"`
	Capacity    *int    `json:"capacity" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

type ListQuery struct {
	Skip   int   `form:"skip" binding:"min=0"`
	Limit  int   `form:"limit" binding:"min=0,max=1000"`
	Active *bool `form:"active"`
}
