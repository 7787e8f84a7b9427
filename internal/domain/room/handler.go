package room

import (
	"errors"
	"net/http"
	"strconv"

	"meetingrooms/internal/pkg/response"
	"meetingrooms/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListRooms(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", validator.Fields(err))
		return
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	rooms, err := h.service.List(c.Request.Context(), Filter{Skip: q.Skip, Limit: q.Limit, Active: q.Active})
	if err != nil {
		h.internalError(c, "Failed to list rooms", err)
		return
	}
	response.Paginated(c, http.StatusOK, rooms, q.Skip, q.Limit)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	room, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Failed to get room")
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	room, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err, "Failed to create room")
		return
	}
	response.Success(c, http.StatusCreated, room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	room, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err, "Failed to update room")
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "Failed to delete room")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) handleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Room not found")
	case errors.Is(err, ErrNameTaken):
		response.Error(c, http.StatusBadRequest, "ROOM_NAME_TAKEN", "A room with this name already exists")
	default:
		h.internalError(c, message, err)
	}
}

func (h *Handler) internalError(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return 0, false
	}
	return id, true
}
