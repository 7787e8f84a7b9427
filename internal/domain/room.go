package domain

import "time"

type Room struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Location    string    `json:"location" gorm:"size:100;not null;index"`
	Capacity    *int      `json:"capacity,omitempty"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
