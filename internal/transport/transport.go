package transport

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ticketforge/ticketforge/internal/service"
	"github.com/ticketforge/ticketforge/internal/transport/middleware"
)

func InitRoutes(authService service.AuthService, authHandler *AuthHandler, eventHandler *EventHandler, ticketHandler *TicketHandler, scanHandler *ScanHandler) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(30))

	authRequired := middleware.Auth(authService)

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authRequired, authHandler.Logout)
			auth.GET("/me", authRequired, authHandler.Me)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.GET("", eventHandler.GetAllEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("", authRequired, eventHandler.CreateEvent)
			events.POST("/:id/cancel", authRequired, eventHandler.CancelEvent)
		}

		// Organizer dashboard
		organizer := api.Group("/organizer", authRequired)
		{
			organizer.GET("/events", eventHandler.GetOrganizerEvents)
		}

		// Ticket routes
		tickets := api.Group("/tickets", authRequired)
		{
			tickets.GET("", ticketHandler.GetUserTickets)
			tickets.POST("/mint", ticketHandler.MintTicket)
			tickets.GET("/:id/qr", ticketHandler.TicketQR)
		}

		// Scan routes
		scan := api.Group("/scan", authRequired)
		{
			scan.POST("/verify", scanHandler.VerifyScan)
			scan.GET("/history", scanHandler.ScanHistory)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	return router
}
