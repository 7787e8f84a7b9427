package room

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetingrooms/internal/database"
	"meetingrooms/internal/domain"

	"go.uber.org/zap"
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, f Filter) ([]domain.Room, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	room := &domain.Room{
		Name:        name,
		Location:    strings.TrimSpace(req.Location),
		Capacity:    req.Capacity,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info("room created", zap.Int64("room_id", room.ID), zap.String("name", room.Name))
	return room, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRoomRequest) (*domain.Room, error) {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != room.Name {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
			room.Name = name
		}
	}
	if req.Location != nil {
		room.Location = strings.TrimSpace(*req.Location)
	}
	if req.Capacity != nil {
		room.Capacity = req.Capacity
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, room); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrNameTaken
		}
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("room deleted", zap.Int64("room_id", id))
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("lookup room name: %w", err)
	case existing.ID != selfID:
		return ErrNameTaken
	}
	return nil
}
