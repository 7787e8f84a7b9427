package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetingrooms/internal/config"
	"meetingrooms/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e Event) error {
	return m.Called(ctx, e).Error(0)
}

func sampleReservation() domain.Reservation {
	start := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	return domain.Reservation{
		ID:      11,
		RoomID:  3,
		Owner:   "Ana",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
		Status:  domain.ReservationActive,
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(ReservationCreated, sampleReservation())

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, ReservationCreated, e.Type)
	assert.Equal(t, int64(3), e.RoomID)
	assert.Equal(t, int64(11), e.ReservationID)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestKafkaPublisher_KeysByRoom(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 &&
			string(msgs[0].Key) == "3" &&
			msgs[0].Headers[0].Key == HeaderEventType &&
			string(msgs[0].Headers[0].Value) == string(ReservationCancelled)
	})).Return(nil)

	p := &KafkaPublisher{writer: w, topic: "reservations"}
	require.NoError(t, p.Publish(context.Background(), NewEvent(ReservationCancelled, sampleReservation())))
	w.AssertExpectations(t)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	w := new(MockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := &KafkaPublisher{writer: w, topic: "reservations"}
	err := p.Publish(context.Background(), NewEvent(ReservationCreated, sampleReservation()))
	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(configWithBrokers(nil), zap.NewNop())
	assert.Error(t, err)
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := new(MockPublisher)
	ok.On("Publish", mock.Anything, mock.Anything).Return(nil)
	bad := new(MockPublisher)
	bad.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nope"))

	err := Multi{ok, bad, Nop{}}.Publish(context.Background(), NewEvent(ReservationDeleted, sampleReservation()))

	assert.ErrorContains(t, err, "nope")
	ok.AssertNumberOfCalls(t, "Publish", 1)
}

func TestHub_StreamsRoomEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, 3)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers(3) == 1 }, time.Second, 5*time.Millisecond)

	other := sampleReservation()
	other.RoomID = 4
	require.NoError(t, hub.Publish(context.Background(), NewEvent(ReservationCreated, other)))
	require.NoError(t, hub.Publish(context.Background(), NewEvent(ReservationCreated, sampleReservation())))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, int64(3), got.RoomID, "events of other rooms are not delivered")
	assert.Equal(t, int64(11), got.ReservationID)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers(3) == 0 }, time.Second, 5*time.Millisecond)
}

func configWithBrokers(brokers []string) config.KafkaConfig {
	return config.KafkaConfig{Brokers: brokers, Topic: "reservations"}
}

func TestHub_MovedReservationReachesPreviousRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, 3)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers(3) == 1 }, time.Second, 5*time.Millisecond)

	moved := sampleReservation()
	moved.RoomID = 4
	e := NewEvent(ReservationUpdated, moved)
	e.PreviousRoomID = 3
	require.NoError(t, hub.Publish(context.Background(), e))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ReservationUpdated, got.Type)
	assert.Equal(t, int64(4), got.RoomID)
	assert.Equal(t, int64(3), got.PreviousRoomID)
}
