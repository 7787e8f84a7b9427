package room

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts read endpoints on public and writes on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/rooms", h.ListRooms)
	public.GET("/rooms/:id", h.GetRoom)

	protected.POST("/rooms", h.CreateRoom)
	protected.PUT("/rooms/:id", h.UpdateRoom)
	protected.DELETE("/rooms/:id", h.DeleteRoom)
}
