package transport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/service"
	"github.com/ticketforge/ticketforge/internal/transport/middleware"
)

type ScanHandler struct {
	verificationService service.VerificationService
}

func NewScanHandler(verificationService service.VerificationService) *ScanHandler {
	return &ScanHandler{verificationService: verificationService}
}

type verifyRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// VerifyScan checks a scanned payload and, on the first valid scan, marks
// the ticket used. An already-used ticket is a 200 with status
// "already_used": that outcome is data for the operator, not a failure.
func (h *ScanHandler) VerifyScan(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.verificationService.VerifyScan(c.Request.Context(), middleware.UserID(c), req.Payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ScanHandler) ScanHistory(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	scans, err := h.verificationService.RecentScans(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scans)
}
