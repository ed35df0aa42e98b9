// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideassist/internal/assistant"
	"rideassist/internal/http/handlers"
	"rideassist/internal/http/middleware"
	"rideassist/internal/modules/booking"
	"rideassist/internal/modules/cancellation"
	"rideassist/internal/modules/profile"
)

type RouterDeps struct {
	Profiles      *profile.Service
	Bookings      *booking.Service
	Cancellations *cancellation.Service
	Assistant     *assistant.Assistant
	// Interpreter may be nil when no language model is configured.
	Interpreter assistant.Interpreter
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	api := r.Group("/api")

	profileHandler := handlers.NewProfileHandler(deps.Profiles)
	api.POST("/riders", profileHandler.CreateRider)
	api.POST("/riders/login", profileHandler.Login)
	api.GET("/riders/:id", profileHandler.GetRider)
	api.POST("/drivers", profileHandler.CreateDriver)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/complete", bookingHandler.Complete)
	api.GET("/riders/:id/bookings", bookingHandler.ListByRider)

	cancellationHandler := handlers.NewCancellationHandler(deps.Cancellations)
	api.POST("/bookings/:id/cancel", cancellationHandler.Cancel)
	api.GET("/bookings/:id/cancellation", cancellationHandler.ForBooking)
	api.GET("/cancellations/:id", cancellationHandler.Get)
	api.PATCH("/cancellations/:id/decision", cancellationHandler.UpdateDecision)
	api.GET("/riders/:id/cancellations", cancellationHandler.ListByRider)

	assistantHandler := handlers.NewAssistantHandler(deps.Interpreter, deps.Assistant)
	api.POST("/assistant/query", assistantHandler.Query)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
