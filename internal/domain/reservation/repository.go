package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"meetingrooms/internal/database"
	"meetingrooms/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultLimit = 100

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FetchActive(ctx context.Context, roomID int64) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, domain.ReservationActive).
		Order("start_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(res).Error
}

func (r *GormRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	q := r.db.WithContext(ctx)
	if database.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var res domain.Reservation
	err := q.First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormRepository) Apply(ctx context.Context, prev domain.Reservation, res *domain.Reservation, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}

	tx := r.db.WithContext(ctx).
		Model(res).
		Where("status = ? AND room_id = ? AND start_at = ? AND end_at = ?",
			domain.ReservationActive, prev.RoomID, prev.StartAt, prev.EndAt).
		Select(columns).
		Updates(res)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).Preload("Room").First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// List returns reservations newest start first.
func (r *GormRepository) List(ctx context.Context, f Filter) ([]domain.Reservation, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}

	q := r.db.WithContext(ctx).Model(&domain.Reservation{}).Preload("Room")
	if f.RoomID != 0 {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if owner := strings.TrimSpace(f.Owner); owner != "" {
		q = q.Where("LOWER(owner) LIKE ?", "%"+strings.ToLower(owner)+"%")
	}
	if f.From != nil {
		q = q.Where("start_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("end_at <= ?", f.To.UTC())
	}

	var out []domain.Reservation
	err := q.Order("start_at DESC").
		Offset(f.Skip).
		Limit(f.Limit).
		Find(&out).Error
	return out, err
}

func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Reservation{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeEndedBefore hard-deletes cancelled reservations and reservations that
// ended before cutoff.
func (r *GormRepository) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("end_at < ? OR (status = ? AND updated_at < ?)", cutoff.UTC(), domain.ReservationCancelled, cutoff.UTC()).
		Delete(&domain.Reservation{})
	return res.RowsAffected, res.Error
}

func (r *GormRepository) WithRoomLock(ctx context.Context, roomID int64, fn func(store Store, room *domain.Room) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if database.IsPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var room domain.Room
		if err := q.First(&room, roomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		return fn(&GormRepository{db: tx}, &room)
	})
}
