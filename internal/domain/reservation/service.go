package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetingrooms/internal/database"
	"meetingrooms/internal/domain"
	"meetingrooms/internal/domain/availability"
	"meetingrooms/internal/events"
	"meetingrooms/internal/lock"
	"meetingrooms/internal/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service owns the reservation write path: every create or re-timed update
// is validated and committed while holding the room's lock.
type Service struct {
	repo      Repository
	rooms     RoomReader
	locker    lock.RoomLocker
	publisher events.Publisher
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(repo Repository, rooms RoomReader, locker lock.RoomLocker, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		rooms:     rooms,
		locker:    locker,
		publisher: publisher,
		log:       log,
		tracer:    tracing.GetTracer("meetingrooms/reservation"),
		now:       time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Reservation, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateReservationRequest) (res *domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Create", trace.WithAttributes(
		attribute.Int64("room_id", req.RoomID),
	))
	defer func() { endSpan(span, err) }()

	res = &domain.Reservation{
		RoomID:         req.RoomID,
		Owner:          strings.TrimSpace(req.Owner),
		StartAt:        req.StartAt.UTC(),
		EndAt:          req.EndAt.UTC(),
		Status:         domain.ReservationActive,
		Description:    req.Description,
		CoffeeNeeded:   req.CoffeeNeeded,
		CoffeeQuantity: req.CoffeeQuantity,
		CoffeeNotes:    req.CoffeeNotes,
	}
	if userID != 0 {
		res.UserID = &userID
	}

	err = s.withRoomLock(ctx, res.RoomID, func(store Store, room *domain.Room) error {
		existing, err := store.FetchActive(ctx, room.ID)
		if err != nil {
			return fmt.Errorf("fetch active reservations: %w", err)
		}
		if err := availability.Validate(*room, res.StartAt, res.EndAt, existing, 0); err != nil {
			return err
		}
		return store.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("room_id", res.RoomID),
		zap.Time("start_at", res.StartAt),
		zap.Time("end_at", res.EndAt),
	)
	s.publish(ctx, events.ReservationCreated, *res)
	return res, nil
}

// Update applies a partial change. Only a change of room, start or end
// re-runs validation, excluding the reservation itself. The row is re-read
// under the room lock and only the changed columns are written.
func (s *Service) Update(ctx context.Context, id int64, req UpdateReservationRequest) (res *domain.Reservation, err error) {
	ctx, span := s.tracer.Start(ctx, "reservation.Update", trace.WithAttributes(
		attribute.Int64("reservation_id", id),
	))
	defer func() { endSpan(span, err) }()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, ErrAlreadyCancelled
	}

	lockedRoom := current.RoomID
	if req.RoomID != nil {
		lockedRoom = *req.RoomID
	}
	span.SetAttributes(attribute.Int64("room_id", lockedRoom))

	var prev domain.Reservation
	retimed := false
	err = s.withRoomLock(ctx, lockedRoom, func(store Store, room *domain.Room) error {
		fresh, err := store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !fresh.IsActive() {
			return ErrAlreadyCancelled
		}
		prev = *fresh

		roomID, start, end := fresh.RoomID, fresh.StartAt, fresh.EndAt
		if req.RoomID != nil {
			roomID = *req.RoomID
		}
		if req.StartAt != nil {
			start = req.StartAt.UTC()
		}
		if req.EndAt != nil {
			end = req.EndAt.UTC()
		}
		// moved to another room since the unlocked read
		if roomID != room.ID {
			return ErrConcurrentUpdate
		}

		columns := applyDetails(fresh, req)
		retimed = roomID != prev.RoomID || !start.Equal(prev.StartAt) || !end.Equal(prev.EndAt)
		if retimed {
			existing, err := store.FetchActive(ctx, room.ID)
			if err != nil {
				return fmt.Errorf("fetch active reservations: %w", err)
			}
			if err := availability.Validate(*room, start, end, existing, fresh.ID); err != nil {
				return err
			}
			fresh.RoomID, fresh.StartAt, fresh.EndAt = roomID, start, end
			columns = append(columns, "room_id", "start_at", "end_at")
		}

		if err := store.Apply(ctx, prev, fresh, columns...); err != nil {
			return err
		}
		res = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	if retimed {
		s.log.Info("reservation rescheduled",
			zap.Int64("reservation_id", res.ID),
			zap.Int64("room_id", res.RoomID),
			zap.Int64("previous_room_id", prev.RoomID),
			zap.Time("start_at", res.StartAt),
			zap.Time("end_at", res.EndAt),
		)
	}

	e := events.NewEvent(events.ReservationUpdated, *res)
	if prev.RoomID != res.RoomID {
		e.PreviousRoomID = prev.RoomID
	}
	s.publishEvent(ctx, e)
	return res, nil
}

// Cancel soft-cancels; the reservation stops taking part in overlap checks.
func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Reservation, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, ErrAlreadyCancelled
	}

	var res *domain.Reservation
	err = s.withRoomLock(ctx, current.RoomID, func(store Store, _ *domain.Room) error {
		fresh, err := store.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !fresh.IsActive() {
			return ErrAlreadyCancelled
		}
		prev := *fresh

		now := s.now().UTC()
		fresh.Status = domain.ReservationCancelled
		fresh.CancelledAt = &now
		if err := store.Apply(ctx, prev, fresh, "status", "cancelled_at"); err != nil {
			return err
		}
		res = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation cancelled", zap.Int64("reservation_id", res.ID), zap.Int64("room_id", res.RoomID))
	s.publish(ctx, events.ReservationCancelled, *res)
	return res, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("reservation deleted", zap.Int64("reservation_id", id), zap.Int64("room_id", res.RoomID))
	s.publish(ctx, events.ReservationDeleted, *res)
	return nil
}

// CheckAvailability answers whether [start, end) is free in the room. It
// reads without locking, so the answer may be stale by the time a
// reservation is attempted.
func (s *Service) CheckAvailability(ctx context.Context, roomID int64, start, end time.Time) (bool, error) {
	if err := s.EnsureRoom(ctx, roomID); err != nil {
		return false, err
	}

	existing, err := s.repo.FetchActive(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("fetch active reservations: %w", err)
	}
	return availability.CheckAvailability(start.UTC(), end.UTC(), existing)
}

// EnsureRoom returns ErrRoomNotFound when roomID does not exist.
func (s *Service) EnsureRoom(ctx context.Context, roomID int64) error {
	_, err := s.rooms.GetByID(ctx, roomID)
	return err
}

// withRoomLock serializes fn with every other writer of roomID: the
// process-wide (or Redis) room lock first, then the DB row lock.
func (s *Service) withRoomLock(ctx context.Context, roomID int64, fn func(store Store, room *domain.Room) error) error {
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		return fmt.Errorf("acquire room lock: %w", err)
	}
	defer unlock()

	err = s.repo.WithRoomLock(ctx, roomID, fn)
	if database.IsOverlapViolation(err) {
		s.log.Warn("overlap rejected by database constraint", zap.Int64("room_id", roomID))
		return &availability.ConflictError{}
	}
	return err
}

func (s *Service) publish(ctx context.Context, t events.Type, res domain.Reservation) {
	s.publishEvent(ctx, events.NewEvent(t, res))
}

func (s *Service) publishEvent(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish reservation event",
			zap.String("event_type", string(e.Type)),
			zap.Int64("reservation_id", e.ReservationID),
			zap.Error(err),
		)
	}
}

// applyDetails copies the non-interval fields of req onto res and returns
// the columns it touched.
func applyDetails(res *domain.Reservation, req UpdateReservationRequest) []string {
	var columns []string
	if req.Owner != nil {
		res.Owner = strings.TrimSpace(*req.Owner)
		columns = append(columns, "owner")
	}
	if req.Description != nil {
		res.Description = *req.Description
		columns = append(columns, "description")
	}
	if req.CoffeeNeeded != nil {
		res.CoffeeNeeded = *req.CoffeeNeeded
		columns = append(columns, "coffee_needed")
	}
	if req.CoffeeQuantity != nil {
		res.CoffeeQuantity = req.CoffeeQuantity
		columns = append(columns, "coffee_quantity")
	}
	if req.CoffeeNotes != nil {
		res.CoffeeNotes = *req.CoffeeNotes
		columns = append(columns, "coffee_notes")
	}
	return columns
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		var conflict *availability.ConflictError
		if !errors.As(err, &conflict) {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
