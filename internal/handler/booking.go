package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/reservation"
)

// BookingHandler drives customer booking sessions.  Every response carries
// the full session snapshot so clients can render notices from it.
type BookingHandler struct {
	Sessions *reservation.Registry
}

func NewBookingHandler(r *reservation.Registry) *BookingHandler {
	if r == nil {
		panic("nil registry passed to NewBookingHandler")
	}
	return &BookingHandler{Sessions: r}
}

// fieldsReq is a partial update of the booking form.  Absent fields are
// left unchanged; an empty string clears date or time.
type fieldsReq struct {
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	People *int    `json:"people"`
}

func (h *BookingHandler) session(c echo.Context) (*reservation.Session, error) {
	return h.Sessions.Get(c.Param("id"))
}

// reply renders the snapshot, with the error on failure.  Session errors are
// part of the normal flow, so the snapshot is sent along with them.
func reply(c echo.Context, s *reservation.Session, status int, err error) error {
	body := echo.Map{}
	if err != nil {
		status, body = errorBody(c, err)
	}
	body["session"] = s.Snapshot()
	return c.JSON(status, body)
}

// Create handles POST /v1/venues/:venue_id/sessions.
func (h *BookingHandler) Create(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	s, err := h.Sessions.Create(ctx, c.Param("venue_id"))
	if err != nil {
		return writeError(c, err)
	}
	return reply(c, s, http.StatusCreated, nil)
}

// Get handles GET /v1/sessions/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return reply(c, s, http.StatusOK, nil)
}

// Close handles DELETE /v1/sessions/:id.
func (h *BookingHandler) Close(c echo.Context) error {
	if _, err := h.session(c); err != nil {
		return writeError(c, err)
	}
	h.Sessions.Close(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// SetFields handles PATCH /v1/sessions/:id/fields.
func (h *BookingHandler) SetFields(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var req fieldsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	var errs []error
	if req.Date != nil {
		errs = append(errs, s.SetDate(*req.Date))
	}
	if req.Time != nil {
		errs = append(errs, s.SetTime(*req.Time))
	}
	if req.People != nil {
		errs = append(errs, s.SetPeople(*req.People))
	}
	return reply(c, s, http.StatusOK, errors.Join(errs...))
}

// IncrementPeople handles POST /v1/sessions/:id/people/increment.
func (h *BookingHandler) IncrementPeople(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	s.IncrementPeople()
	return reply(c, s, http.StatusOK, nil)
}

// DecrementPeople handles POST /v1/sessions/:id/people/decrement.
func (h *BookingHandler) DecrementPeople(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return reply(c, s, http.StatusOK, s.DecrementPeople())
}

// SelectSeat handles POST /v1/sessions/:id/seats/:seat_id.
func (h *BookingHandler) SelectSeat(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return reply(c, s, http.StatusOK, s.SelectSeat(c.Param("seat_id")))
}

// UnselectSeat handles DELETE /v1/sessions/:id/seats/:seat_id.
func (h *BookingHandler) UnselectSeat(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	s.UnselectSeat(c.Param("seat_id"))
	return reply(c, s, http.StatusOK, nil)
}

// CheckAvailability handles POST /v1/sessions/:id/availability.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	return reply(c, s, http.StatusOK, s.CheckAvailability(ctx))
}

// Reserve handles POST /v1/sessions/:id/reservation on behalf of the
// authenticated user.
func (h *BookingHandler) Reserve(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := s.Submit(ctx, currentUser(c))
	if err != nil {
		return reply(c, s, 0, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservation": res, "session": s.Snapshot()})
}

// Dismiss handles DELETE /v1/sessions/:id/notices/:notice.
func (h *BookingHandler) Dismiss(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return reply(c, s, http.StatusOK, s.Dismiss(c.Param("notice")))
}
