package reservation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"meetingrooms/internal/database/dbtest"
	"meetingrooms/internal/domain"
	"meetingrooms/internal/domain/room"
	"meetingrooms/internal/events"
	"meetingrooms/internal/lock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Details struct {
			ConflictingIDs []int64 `json:"conflicting_ids"`
		} `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *domain.Room, *domain.Room) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	active := seedRoom(t, db, "Active", true)
	inactive := seedRoom(t, db, "Closed", false)

	svc := NewService(NewRepository(db), room.NewRepository(db), lock.NewLocalLocker(), events.Nop{}, zap.NewNop())
	h := NewHandler(svc, nil)

	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterRoutes(api, api)
	return r, active, inactive
}

func call(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func createBody(roomID int64, start, end string) gin.H {
	return gin.H{"room_id": roomID, "owner": "Ana", "start_at": start, "end_at": end}
}

func TestHandler_CreateConflictAndTouching(t *testing.T) {
	r, active, _ := setupRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T09:00:00Z", "2026-10-20T10:00:00Z"))
	require.Equal(t, http.StatusCreated, code)
	var first domain.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &first))

	code, env = call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T09:30:00Z", "2026-10-20T10:30:00Z"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "TIME_CONFLICT", env.Error.Code)
	assert.Equal(t, []int64{first.ID}, env.Error.Details.ConflictingIDs)

	code, _ = call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T10:00:00Z", "2026-10-20T11:00:00Z"))
	assert.Equal(t, http.StatusCreated, code, "touching intervals do not conflict")
}

func TestHandler_ErrorKinds(t *testing.T) {
	r, active, inactive := setupRouter(t)

	code, env := call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T10:00:00Z", "2026-10-20T09:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_INTERVAL", env.Error.Code)

	code, env = call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(inactive.ID, "2026-10-20T09:00:00Z", "2026-10-20T10:00:00Z"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ROOM_INACTIVE", env.Error.Code)

	code, env = call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(999, "2026-10-20T09:00:00Z", "2026-10-20T10:00:00Z"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, env = call(t, r, http.MethodPost, "/api/v1/reservations", gin.H{"room_id": active.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = call(t, r, http.MethodGet, "/api/v1/reservations/12345", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandler_UpdateCancelDelete(t *testing.T) {
	r, active, _ := setupRouter(t)

	_, env := call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T09:00:00Z", "2026-10-20T10:00:00Z"))
	var res domain.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &res))
	path := "/api/v1/reservations/" + jsonID(res.ID)

	code, env := call(t, r, http.MethodPut, path, gin.H{"end_at": "2026-10-20T11:00:00Z", "coffee_needed": true, "coffee_quantity": 4})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.CoffeeNeeded)
	assert.Equal(t, "2026-10-20T11:00:00Z", res.EndAt.UTC().Format("2006-01-02T15:04:05Z07:00"))

	code, env = call(t, r, http.MethodPatch, path+"/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, domain.ReservationCancelled, res.Status)

	code, env = call(t, r, http.MethodPatch, path+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ALREADY_CANCELLED", env.Error.Code)

	code, _ = call(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandler_Availability(t *testing.T) {
	r, active, _ := setupRouter(t)

	call(t, r, http.MethodPost, "/api/v1/reservations",
		createBody(active.ID, "2026-10-20T09:00:00Z", "2026-10-20T10:00:00Z"))

	base := "/api/v1/rooms/" + jsonID(active.ID) + "/availability"

	code, env := call(t, r, http.MethodGet, base+"?start=2026-10-20T10:00:00Z&end=2026-10-20T11:00:00Z", nil)
	require.Equal(t, http.StatusOK, code)
	var got AvailabilityResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Available)
	assert.Equal(t, active.ID, got.RoomID)

	code, env = call(t, r, http.MethodGet, base+"?start=2026-10-20T09:30:00Z&end=2026-10-20T10:30:00Z", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.False(t, got.Available)

	code, env = call(t, r, http.MethodGet, base+"?start=2026-10-20T11:00:00Z&end=2026-10-20T10:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_INTERVAL", env.Error.Code)

	code, _ = call(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
