package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetingrooms/internal/config"
	"meetingrooms/internal/database/dbtest"
	"meetingrooms/internal/events"
	"meetingrooms/internal/lock"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type E2ETestSuite struct {
	router *gin.Engine
	hub    *events.Hub
	token  string
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load("")
	require.NoError(t, err)

	log := zap.NewNop()
	hub := events.NewHub(log)
	pub, closer, err := NewPublisher(cfg.Kafka, hub, log)
	require.NoError(t, err)
	require.Nil(t, closer)

	router := NewRouter(Deps{
		Config:    cfg,
		DB:        dbtest.New(t),
		Log:       log,
		Locker:    lock.NewLocalLocker(),
		Publisher: pub,
		Hub:       hub,
	})
	return &E2ETestSuite{router: router, hub: hub}
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (s *E2ETestSuite) login(t *testing.T) {
	t.Helper()
	w, _ := s.makeRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ana@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s.token = resp.Data["access_token"].(string)
}

func TestHealth(t *testing.T) {
	s := setupTestSuite(t)

	w, _ := s.makeRequest(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestWritesRequireAuth(t *testing.T) {
	s := setupTestSuite(t)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/rooms", map[string]string{"name": "A", "location": "1F"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)

	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/rooms", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReservationFlow(t *testing.T) {
	s := setupTestSuite(t)
	s.login(t)

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/rooms", map[string]interface{}{
		"name": "Sala Azul", "location": "2F", "capacity": 8,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roomID := int64(resp.Data["id"].(float64))

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/api/v1/rooms/%d/events", roomID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.Subscribers(roomID) == 1 }, time.Second, 5*time.Millisecond)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"room_id": roomID, "owner": "Ana", "start_at": "2026-10-20T09:00:00Z", "end_at": "2026-10-20T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	firstID := int64(resp.Data["id"].(float64))
	assert.Equal(t, float64(1), resp.Data["user_id"], "reservation records the authenticated user")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, events.ReservationCreated, evt.Type)
	assert.Equal(t, firstID, evt.ReservationID)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"room_id": roomID, "owner": "Bob", "start_at": "2026-10-20T09:30:00Z", "end_at": "2026-10-20T11:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TIME_CONFLICT", resp.Error.Code)
	assert.Equal(t, []interface{}{float64(firstID)}, resp.Error.Details["conflicting_ids"])

	w, resp = s.makeRequest(t, http.MethodPut, "/api/v1/rooms/"+fmt.Sprint(roomID), map[string]interface{}{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/reservations", map[string]interface{}{
		"room_id": roomID, "owner": "Bob", "start_at": "2026-10-20T12:00:00Z", "end_at": "2026-10-20T13:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ROOM_INACTIVE", resp.Error.Code)

	w, _ = s.makeRequest(t, http.MethodDelete, "/api/v1/rooms/"+fmt.Sprint(roomID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/reservations/"+fmt.Sprint(firstID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "room delete cascades to reservations")
}
