package auth

import (
	"errors"
	"net/http"
	"time"

	"meetingrooms/internal/middleware"
	"meetingrooms/internal/pkg/response"
	"meetingrooms/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	tokenTTL time.Duration
}

func NewHandler(service *Service, tokenTTL time.Duration) *Handler {
	return &Handler{service: service, tokenTTL: tokenTTL}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusBadRequest, "EMAIL_TAKEN", "Email is already registered")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to register user")
		return
	}
	response.Success(c, http.StatusCreated, toPublic(user))
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password")
		case errors.Is(err, ErrUserInactive):
			response.Error(c, http.StatusForbidden, "USER_INACTIVE", "User is inactive")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in")
		}
		return
	}

	response.Success(c, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
		User:        toPublic(result.User),
	})
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User no longer exists")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user")
		return
	}
	response.Success(c, http.StatusOK, toPublic(user))
}
