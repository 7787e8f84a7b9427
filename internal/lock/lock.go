// Package lock provides the per-room mutual exclusion under which a
// reservation is validated and committed.
package lock

import (
	"context"
	"sync"
)

// RoomLocker serializes writers for the same room. The returned unlock func
// is safe to call more than once.
type RoomLocker interface {
	Lock(ctx context.Context, roomID int64) (unlock func(), err error)
}

// LocalLocker is an in-process keyed mutex. It is enough for a single API
// instance; RedisLocker covers several.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[int64]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, roomID int64) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[roomID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[roomID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(roomID, s)
			})
		}, nil
	case <-ctx.Done():
		l.release(roomID, s)
		return nil, ctx.Err()
	}
}

func (l *LocalLocker) release(roomID int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, roomID)
	}
}
