package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/service"
)

const (
	authHeader = "Authorization"

	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserName  = "userName"
	ctxToken     = "sessionToken"
)

// Auth resolves the bearer token to a live session and stores the
// principal in the request context. Requests without a valid session are
// rejected before reaching the handler.
func Auth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		session, err := authService.SessionFromToken(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(ctxUserID, session.UserID)
		c.Set(ctxUserEmail, session.Email)
		c.Set(ctxUserName, session.Name)
		c.Set(ctxToken, parts[1])
		c.Next()
	}
}

// UserID returns the authenticated principal's id, empty when the request
// did not pass through Auth.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func UserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

func UserName(c *gin.Context) string {
	return c.GetString(ctxUserName)
}

// Token returns the bearer token Auth validated for this request, so
// handlers never re-parse the Authorization header themselves.
func Token(c *gin.Context) string {
	return c.GetString(ctxToken)
}
