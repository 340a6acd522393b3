package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/model"
)

// VenueHandler serves read-only venue data: the public layout and the
// owner's reservation list.
type VenueHandler struct {
	Layouts      gateway.LayoutGateway
	Reservations gateway.ReservationGateway
}

func NewVenueHandler(gw gateway.Gateway) *VenueHandler {
	if gw == nil {
		panic("nil gateway passed to NewVenueHandler")
	}
	return &VenueHandler{Layouts: gw, Reservations: gw}
}

// Layout handles GET /v1/venues/:venue_id/layout.
func (h *VenueHandler) Layout(c echo.Context) error {
	venueID := c.Param("venue_id")
	if venueID == "" {
		return badRequest(c, "venue_id required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	l, err := h.Layouts.FetchLayout(ctx, venueID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"venue_id": venueID, "layout": l})
}

// OwnerReservations handles GET /v1/layout/reservations?date=DD-MM-YYYY.
// It lists the reservations made against the authenticated owner's layout,
// newest first.  The date defaults to today.
func (h *VenueHandler) OwnerReservations(c echo.Context) error {
	owner := currentUser(c)
	if owner == "" {
		return writeError(c, model.ErrUnauthenticated)
	}
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		return badRequest(c, "date must be DD-MM-YYYY")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Reservations.ListReservations(ctx, owner, date)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date, "items": items, "count": len(items)})
}
