package reservation

import (
	"context"
	"time"

	"meetingrooms/internal/domain"
)

// Store is the part of the repository usable inside a room lock.
type Store interface {
	FetchActive(ctx context.Context, roomID int64) ([]domain.Reservation, error)
	// GetForUpdate reads the reservation row, locking it on Postgres.
	GetForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	Create(ctx context.Context, r *domain.Reservation) error
	// Apply writes only the named columns of r, and only while the stored
	// row still matches prev: active, same room and interval. Otherwise it
	// returns ErrConcurrentUpdate.
	Apply(ctx context.Context, prev domain.Reservation, r *domain.Reservation, columns ...string) error
}

type Repository interface {
	Store
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, f Filter) ([]domain.Reservation, error)
	Delete(ctx context.Context, id int64) error
	PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// WithRoomLock runs fn in a single transaction holding a row lock on the
	// room. fn receives a transaction-bound Store and the locked room row.
	WithRoomLock(ctx context.Context, roomID int64, fn func(store Store, room *domain.Room) error) error
}

type RoomReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

type Filter struct {
	Skip   int
	Limit  int
	RoomID int64
	Owner  string
	From   *time.Time
	To     *time.Time
}
