package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meetingrooms/internal/database/dbtest"
	"meetingrooms/internal/middleware"
	"meetingrooms/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := jwt.New("test-secret", time.Hour)
	h := NewHandler(NewService(NewUserRepository(dbtest.New(t)), tokens, zap.NewNop()), tokens.TTL())

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	h.RegisterProtectedRoutes(protected)
	return r
}

func post(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RegisterLoginMe(t *testing.T) {
	r := setupRouter(t)

	w := post(r, "/api/v1/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = post(r, "/api/v1/auth/register", gin.H{"name": "Ana", "email": "ana@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMAIL_TAKEN")

	w = post(r, "/api/v1/auth/login", gin.H{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(r, "/api/v1/auth/login", gin.H{"email": "ana@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, int64(3600), login.Data.ExpiresIn)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ana@example.com")
}

func TestHandler_RegisterValidation(t *testing.T) {
	r := setupRouter(t)

	w := post(r, "/api/v1/auth/register", gin.H{"name": "Ana", "email": "not-an-email", "password": "123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}
