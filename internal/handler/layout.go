package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seating-plan/internal/drag"
	"github.com/iliyamo/seating-plan/internal/editor"
	"github.com/iliyamo/seating-plan/internal/grid"
	"github.com/iliyamo/seating-plan/internal/model"
)

// LayoutHandler serves the owner's seating-plan editor under /v1/layout.
// Every endpoint acts on the editor of the authenticated owner.
type LayoutHandler struct {
	Editors *editor.Manager
}

func NewLayoutHandler(m *editor.Manager) *LayoutHandler {
	if m == nil {
		panic("nil editor manager passed to NewLayoutHandler")
	}
	return &LayoutHandler{Editors: m}
}

type moveReq struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type dragEventReq struct {
	Kind     string     `json:"kind"`
	Delta    grid.Point `json:"delta"`
	Scroll   grid.Point `json:"scroll"`
	Keyboard bool       `json:"keyboard"`
}

// dragReq is either an explicit event list or a single pointer gesture
// described by its final delta and scroll.
type dragReq struct {
	Events []dragEventReq `json:"events"`
	Delta  *grid.Point    `json:"delta"`
	Scroll grid.Point     `json:"scroll"`
}

func (r dragReq) events() ([]drag.Event, error) {
	if len(r.Events) == 0 {
		if r.Delta == nil {
			return nil, fmt.Errorf("%w: events or delta required", model.ErrInvalidField)
		}
		return drag.GestureEvents(*r.Delta, r.Scroll), nil
	}
	out := make([]drag.Event, 0, len(r.Events))
	for _, ev := range r.Events {
		k, ok := drag.ParseEventKind(ev.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown event kind %q", model.ErrInvalidField, ev.Kind)
		}
		out = append(out, drag.Event{Kind: k, Delta: ev.Delta, Scroll: ev.Scroll, Keyboard: ev.Keyboard})
	}
	return out, nil
}

type placeReq struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type seatTypeReq struct {
	SeatType string `json:"seat_type"`
}

type gridReq struct {
	GridSize int `json:"grid_size"`
}

func (h *LayoutHandler) editor(c echo.Context) (*editor.Editor, error) {
	ctx, cancel := withTimeout(c)
	defer cancel()
	return h.Editors.Get(ctx, currentUser(c))
}

// Get handles GET /v1/layout.
func (h *LayoutHandler) Get(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e.Snapshot())
}

// AddSeat handles POST /v1/layout/seats.
func (h *LayoutHandler) AddSeat(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	s, err := e.AddSeat()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"seat": s})
}

// AddBlock handles POST /v1/layout/seats/block.
func (h *LayoutHandler) AddBlock(c echo.Context) error {
	var req editor.BlockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	seats, err := e.AddBlock(req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": seats, "count": len(seats)})
}

// MoveSeat handles PUT /v1/layout/seats/:id with a {x, y} cell.
func (h *LayoutHandler) MoveSeat(c echo.Context) error {
	var req moveReq
	if err := c.Bind(&req); err != nil || req.X == nil || req.Y == nil {
		return badRequest(c, "x and y are required")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	s, err := e.MoveSeat(c.Param("id"), grid.Cell{Col: *req.X, Row: *req.Y})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seat": s})
}

// DeleteSeat handles DELETE /v1/layout/seats/:id.
func (h *LayoutHandler) DeleteSeat(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := e.DeleteSeat(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DragSeat handles POST /v1/layout/seats/:id/drag.
func (h *LayoutHandler) DragSeat(c echo.Context) error {
	return h.drag(c, (*editor.Editor).DragSeat)
}

// DragText handles POST /v1/layout/texts/:id/drag.
func (h *LayoutHandler) DragText(c echo.Context) error {
	return h.drag(c, (*editor.Editor).DragText)
}

func (h *LayoutHandler) drag(c echo.Context, apply func(*editor.Editor, string, []drag.Event) (editor.DragResult, error)) error {
	var req dragReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	events, err := req.events()
	if err != nil {
		return writeError(c, err)
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := apply(e, c.Param("id"), events)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// BeginPlacement handles POST /v1/layout/texts/placement.
func (h *LayoutHandler) BeginPlacement(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	e.BeginTextPlacement()
	return c.JSON(http.StatusOK, echo.Map{"placing_text": true})
}

// CancelPlacement handles DELETE /v1/layout/texts/placement.
func (h *LayoutHandler) CancelPlacement(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	e.CancelTextPlacement()
	return c.JSON(http.StatusOK, echo.Map{"placing_text": false})
}

// PlaceText handles POST /v1/layout/texts with the pixel position of the
// placement click.  Ignored clicks answer 200 with a null label.
func (h *LayoutHandler) PlaceText(c echo.Context) error {
	var req placeReq
	if err := c.Bind(&req); err != nil || req.X == nil || req.Y == nil {
		return badRequest(c, "x and y are required")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := e.PlaceText(grid.Point{X: *req.X, Y: *req.Y})
	if err != nil {
		return writeError(c, err)
	}
	if t == nil {
		return c.JSON(http.StatusOK, echo.Map{"label": nil, "ignored": true})
	}
	return c.JSON(http.StatusCreated, echo.Map{"label": t})
}

// EditText handles PATCH /v1/layout/texts/:id.
func (h *LayoutHandler) EditText(c echo.Context) error {
	var patch editor.TextPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := e.EditText(c.Param("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"label": t})
}

// DeleteText handles DELETE /v1/layout/texts/:id.
func (h *LayoutHandler) DeleteText(c echo.Context) error {
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := e.DeleteText(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetSeatType handles PUT /v1/layout/seat-type.
func (h *LayoutHandler) SetSeatType(c echo.Context) error {
	var req seatTypeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := e.SetSeatType(model.SeatType(req.SeatType)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e.Snapshot())
}

// SetGrid handles PUT /v1/layout/grid.
func (h *LayoutHandler) SetGrid(c echo.Context) error {
	var req gridReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	e, err := h.editor(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := e.SetCellSize(req.GridSize); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e.Snapshot())
}
