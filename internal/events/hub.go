package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type subscriber struct {
	roomID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub pushes reservation events to websocket clients watching a room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*subscriber]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[int64]map[*subscriber]struct{}),
		log:   log,
	}
}

func (h *Hub) register(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[s.roomID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.rooms[s.roomID] = subs
	}
	subs[s] = struct{}{}
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.rooms[s.roomID]
	if _, ok := subs[s]; !ok {
		return
	}
	delete(subs, s)
	close(s.send)
	if len(subs) == 0 {
		delete(h.rooms, s.roomID)
	}
}

// Subscribers reports how many clients currently watch roomID.
func (h *Hub) Subscribers(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Publish never blocks; slow clients miss events.
func (h *Hub) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.broadcast(e.RoomID, e.Type, data)
	if e.PreviousRoomID != 0 && e.PreviousRoomID != e.RoomID {
		h.broadcast(e.PreviousRoomID, e.Type, data)
	}
	return nil
}

// broadcast must be called with h.mu held.
func (h *Hub) broadcast(roomID int64, t Type, data []byte) {
	for s := range h.rooms[roomID] {
		select {
		case s.send <- data:
		default:
			h.log.Warn("dropping event for slow subscriber",
				zap.Int64("room_id", roomID),
				zap.String("event_type", string(t)),
			)
		}
	}
}

// ServeWS upgrades the request and streams events of roomID until the
// client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, roomID int64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	s := &subscriber{
		roomID: roomID,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	h.register(s)

	go h.writePump(s)
	h.readPump(s)
	return nil
}

// readPump only drains control frames; clients have nothing to send.
func (h *Hub) readPump(s *subscriber) {
	defer func() {
		h.unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMsgSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
