package reservation

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts read endpoints on public and writes on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/reservations", h.ListReservations)
	public.GET("/reservations/:id", h.GetReservation)
	public.GET("/rooms/:id/availability", h.GetRoomAvailability)
	if h.hub != nil {
		public.GET("/rooms/:id/events", h.RoomEvents)
	}

	protected.POST("/reservations", h.CreateReservation)
	protected.PUT("/reservations/:id", h.UpdateReservation)
	protected.PATCH("/reservations/:id/cancel", h.CancelReservation)
	protected.DELETE("/reservations/:id", h.DeleteReservation)
}
