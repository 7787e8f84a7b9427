package reservation

import (
	"errors"

	"meetingrooms/internal/domain/room"
)

var (
	ErrNotFound         = errors.New("reservation not found")
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
	ErrConcurrentUpdate = errors.New("reservation changed concurrently")
	ErrRoomNotFound     = room.ErrNotFound
)
