package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/entity"
)

// respondError maps domain sentinels to HTTP statuses. Unrecognized errors
// become 500 with a generic message so internals do not leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entity.ErrEventNotFound),
		errors.Is(err, entity.ErrTicketTypeNotFound),
		errors.Is(err, entity.ErrTicketNotFound),
		errors.Is(err, entity.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrSoldOut):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrAlreadyExists),
		errors.Is(err, entity.ErrCannotModify),
		errors.Is(err, entity.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrEventCancelled),
		errors.Is(err, entity.ErrTicketTypeMismatch),
		errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrInvalidCredentials),
		errors.Is(err, entity.ErrNotAuthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
