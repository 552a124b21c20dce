package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/service"
	"github.com/ticketforge/ticketforge/internal/transport/middleware"
)

type EventHandler struct {
	catalogService service.CatalogService
}

func NewEventHandler(catalogService service.CatalogService) *EventHandler {
	return &EventHandler{catalogService: catalogService}
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.catalogService.CreateEvent(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.catalogService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetAllEvents(c *gin.Context) {
	events, err := h.catalogService.GetAllEvents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) CancelEvent(c *gin.Context) {
	if err := h.catalogService.CancelEvent(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// GetOrganizerEvents lists the caller's own events with inventory totals.
func (h *EventHandler) GetOrganizerEvents(c *gin.Context) {
	events, err := h.catalogService.GetOrganizerEvents(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}
