package room

import (
	"context"
	"errors"

	"meetingrooms/internal/domain"

	"gorm.io/gorm"
)

const DefaultLimit = 100

type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, f Filter) ([]domain.Room, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}

	q := r.db.WithContext(ctx).Model(&domain.Room{})
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var rooms []domain.Room
	err := q.Order("id ASC").
		Offset(f.Skip).
		Limit(f.Limit).
		Find(&rooms).Error
	return rooms, err
}

func (r *GormRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormRepository) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *GormRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// Update writes every column so is_active=false and cleared fields persist.
func (r *GormRepository) Update(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// Delete removes the room together with its reservations.
func (r *GormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&domain.Reservation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Room{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
