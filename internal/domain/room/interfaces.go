package room

import (
	"context"

	"meetingrooms/internal/domain"
)

type Filter struct {
	Skip   int
	Limit  int
	Active *bool
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	GetByName(ctx context.Context, name string) (*domain.Room, error)
	Create(ctx context.Context, room *domain.Room) error
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id int64) error
}
