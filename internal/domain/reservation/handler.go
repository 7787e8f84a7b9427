package reservation

import (
	"errors"
	"net/http"
	"strconv"

	"meetingrooms/internal/domain/availability"
	"meetingrooms/internal/events"
	"meetingrooms/internal/middleware"
	"meetingrooms/internal/pkg/response"
	"meetingrooms/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	hub     *events.Hub
}

// NewHandler builds the HTTP handler. hub may be nil, which disables the
// room event stream.
func NewHandler(service *Service, hub *events.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

func (h *Handler) ListReservations(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", validator.Fields(err))
		return
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}

	items, err := h.service.List(c.Request.Context(), Filter{
		Skip:   q.Skip,
		Limit:  q.Limit,
		RoomID: q.RoomID,
		Owner:  q.Owner,
		From:   q.From,
		To:     q.To,
	})
	if err != nil {
		h.handleError(c, err, "Failed to list reservations")
		return
	}
	response.Paginated(c, http.StatusOK, items, q.Skip, q.Limit)
}

func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := parseID(c, "Invalid reservation ID")
	if !ok {
		return
	}

	res, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Failed to get reservation")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	res, err := h.service.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		h.handleError(c, err, "Failed to create reservation")
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) UpdateReservation(c *gin.Context) {
	id, ok := parseID(c, "Invalid reservation ID")
	if !ok {
		return
	}

	var req UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	res, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.handleError(c, err, "Failed to update reservation")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) CancelReservation(c *gin.Context) {
	id, ok := parseID(c, "Invalid reservation ID")
	if !ok {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Failed to cancel reservation")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c, "Invalid reservation ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "Failed to delete reservation")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) GetRoomAvailability(c *gin.Context) {
	roomID, ok := parseID(c, "Invalid room ID")
	if !ok {
		return
	}

	var q AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "start and end are required RFC3339 timestamps", validator.Fields(err))
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), roomID, q.Start, q.End)
	if err != nil {
		h.handleError(c, err, "Failed to check availability")
		return
	}
	response.Success(c, http.StatusOK, AvailabilityResponse{
		RoomID:    roomID,
		Start:     q.Start.UTC(),
		End:       q.End.UTC(),
		Available: available,
	})
}

func (h *Handler) RoomEvents(c *gin.Context) {
	roomID, ok := parseID(c, "Invalid room ID")
	if !ok {
		return
	}
	if err := h.service.EnsureRoom(c.Request.Context(), roomID); err != nil {
		h.handleError(c, err, "Failed to open event stream")
		return
	}

	// Upgrade writes its own HTTP error on failure.
	if err := h.hub.ServeWS(c.Writer, c.Request, roomID); err != nil {
		_ = c.Error(err)
	}
}

func (h *Handler) handleError(c *gin.Context, err error, message string) {
	var conflict *availability.ConflictError
	switch {
	case errors.As(err, &conflict):
		ids := conflict.ReservationIDs
		if ids == nil {
			ids = []int64{}
		}
		response.ErrorWithDetails(c, http.StatusConflict, "TIME_CONFLICT",
			"Room is already reserved for the requested time",
			gin.H{"conflicting_ids": ids})
	case errors.Is(err, availability.ErrInvalidInterval):
		response.Error(c, http.StatusBadRequest, "INVALID_INTERVAL", "End time must be after start time")
	case errors.Is(err, availability.ErrRoomInactive):
		response.Error(c, http.StatusBadRequest, "ROOM_INACTIVE", "Room is not active for reservations")
	case errors.Is(err, ErrAlreadyCancelled):
		response.Error(c, http.StatusBadRequest, "ALREADY_CANCELLED", "Reservation is already cancelled")
	case errors.Is(err, ErrConcurrentUpdate):
		response.Error(c, http.StatusConflict, "CONCURRENT_UPDATE", "Reservation was changed by another request, retry")
	case errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Room not found")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Reservation not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}

func parseID(c *gin.Context, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", message)
		return 0, false
	}
	return id, true
}
