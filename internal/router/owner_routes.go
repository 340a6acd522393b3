package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/handler"
	"github.com/iliyamo/seating-plan/internal/middleware"
	"github.com/iliyamo/seating-plan/internal/model"
)

// RegisterLayout registers the owner's editor under /v1/layout.  All routes
// require a valid JWT and the OWNER role.
func RegisterLayout(e *echo.Echo, h *handler.LayoutHandler, v *handler.VenueHandler, jwtSecret string) {
	g := e.Group("/v1/layout",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOwner),
	)
	g.GET("", h.Get)
	g.GET("/", h.Get)

	g.POST("/seats", h.AddSeat)
	g.POST("/seats/block", h.AddBlock)
	g.PUT("/seats/:id", h.MoveSeat)
	g.DELETE("/seats/:id", h.DeleteSeat)
	g.POST("/seats/:id/drag", h.DragSeat)

	g.POST("/texts/placement", h.BeginPlacement)
	g.DELETE("/texts/placement", h.CancelPlacement)
	g.POST("/texts", h.PlaceText)
	g.PATCH("/texts/:id", h.EditText)
	g.DELETE("/texts/:id", h.DeleteText)
	g.POST("/texts/:id/drag", h.DragText)

	g.PUT("/seat-type", h.SetSeatType)
	g.PUT("/grid", h.SetGrid)

	g.GET("/reservations", v.OwnerReservations)
}
