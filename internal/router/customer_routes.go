package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/middleware"
)

// RegisterBooking registers booking sessions.  Guests may browse and check
// availability; submitting a reservation requires a JWT.  limit throttles
// every booking route.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	optional := middleware.OptionalJWT(jwtSecret)

	e.POST("/v1/venues/:venue_id/sessions", h.Create, optional, limit)

	g := e.Group("/v1/sessions", optional, limit)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Close)
	g.PATCH("/:id/fields", h.SetFields)
	g.POST("/:id/people/increment", h.IncrementPeople)
	g.POST("/:id/people/decrement", h.DecrementPeople)
	g.POST("/:id/seats/:seat_id", h.SelectSeat)
	g.DELETE("/:id/seats/:seat_id", h.UnselectSeat)
	g.POST("/:id/availability", h.CheckAvailability)
	g.POST("/:id/reservation", h.Reserve, middleware.JWTAuth(jwtSecret))
	g.DELETE("/:id/notices/:notice", h.Dismiss)
}
