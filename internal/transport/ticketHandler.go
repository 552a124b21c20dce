package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/service"
	"github.com/ticketforge/ticketforge/internal/transport/middleware"
)

type TicketHandler struct {
	issuanceService service.IssuanceService
}

func NewTicketHandler(issuanceService service.IssuanceService) *TicketHandler {
	return &TicketHandler{issuanceService: issuanceService}
}

func (h *TicketHandler) MintTicket(c *gin.Context) {
	var req service.MintTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.OwnerID = middleware.UserID(c)

	ticket, err := h.issuanceService.MintTicket(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) GetUserTickets(c *gin.Context) {
	tickets, err := h.issuanceService.GetUserTickets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// TicketQR streams the ticket's signed payload as a QR PNG. Only the
// ticket owner may fetch it.
func (h *TicketHandler) TicketQR(c *gin.Context) {
	png, err := h.issuanceService.TicketQR(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
