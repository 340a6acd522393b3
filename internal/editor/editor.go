// Package editor is the layout editing controller.  An Editor owns the
// in-memory layout of one owner and a drag controller per widget; every
// mutation is applied locally and handed to a Writer for persistence without
// waiting for it.
package editor

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/drag"
	"github.com/iliyamo/seating-plan/internal/gateway"
	"github.com/iliyamo/seating-plan/internal/grid"
	"github.com/iliyamo/seating-plan/internal/layout"
	"github.com/iliyamo/seating-plan/internal/model"
)

// Writer persists layout writes asynchronously.  *gateway.Syncer implements it.
type Writer interface {
	Enqueue(op gateway.Op)
	Status(ownerID string) gateway.SyncStatus
}

// Options describe the grid an editor works on.
type Options struct {
	CellSize           int
	ItemWidth          int // cells per seat, horizontally
	ItemHeight         int // cells per seat, vertically
	ActivationDistance int
	Bounds             grid.Bounds
	MaxBlock           int // seats per AddBlock, DefaultMaxBlock when <= 0
}

// DefaultMaxBlock caps AddBlock when Options.MaxBlock is unset.
const DefaultMaxBlock = 1000

// BlockRequest is a multi-seat add: Rows x Columns seats with HSpacing and
// VSpacing empty cells between neighbouring seats.
type BlockRequest struct {
	Rows     int `json:"rows"`
	Columns  int `json:"columns"`
	HSpacing int `json:"h_spacing"`
	VSpacing int `json:"v_spacing"`
}

// TextPatch changes a label.  Nil fields are left alone.
type TextPatch struct {
	Value  *string `json:"value"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
}

// DragResult reports the outcome of a drag gesture on a seat or label.
type DragResult struct {
	Outcome   string           `json:"outcome"`
	Seat      *model.Seat      `json:"seat,omitempty"`
	Label     *model.TextLabel `json:"label,omitempty"`
	Translate grid.Point       `json:"translate"`
}

// Snapshot is a read-only copy of the editor state.
type Snapshot struct {
	OwnerID     string             `json:"owner_id"`
	Layout      model.Layout       `json:"layout"`
	GridSize    int                `json:"grid_size"`
	ItemWidth   int                `json:"item_width"`
	ItemHeight  int                `json:"item_height"`
	Bounds      grid.Bounds        `json:"bounds"`
	PlacingText bool               `json:"placing_text"`
	SeatTypes   []model.SeatType   `json:"seat_types"`
	Sync        gateway.SyncStatus `json:"sync"`
}

// Editor is safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	owner   string
	opts    Options
	store   *layout.Store
	seats   map[string]*drag.Controller
	texts   map[string]*drag.Controller
	placing bool

	w   Writer
	log *zap.Logger
}

// New returns an empty editor for owner.
func New(owner string, opts Options, w Writer, log *zap.Logger) (*Editor, error) {
	if owner == "" {
		return nil, model.ErrUnauthenticated
	}
	if w == nil {
		panic("nil writer")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.CellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size must be positive", model.ErrInvalidField)
	}
	if opts.ItemWidth <= 0 {
		opts.ItemWidth = 1
	}
	if opts.ItemHeight <= 0 {
		opts.ItemHeight = 1
	}
	if opts.MaxBlock <= 0 {
		opts.MaxBlock = DefaultMaxBlock
	}
	return &Editor{
		owner: owner,
		opts:  opts,
		store: layout.NewStore(),
		seats: make(map[string]*drag.Controller),
		texts: make(map[string]*drag.Controller),
		w:     w,
		log:   log.With(zap.String("owner_id", owner)),
	}, nil
}

// Owner returns the owner id the editor writes for.
func (e *Editor) Owner() string { return e.owner }

// Load replaces the local layout with l.  Nothing is written back.
func (e *Editor) Load(l model.Layout) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if skipped := e.store.Load(l); skipped > 0 {
		e.log.Warn("editor: dropped duplicate ids on load", zap.Int("skipped", skipped))
	}
	e.resetDragsLocked()
}

// AddSeat places a new seat at the grid origin.
func (e *Editor) AddSeat() (model.Seat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := model.Seat{ID: grid.NewID(grid.SeatIDPrefix)}
	if err := e.store.Seats.Add(s); err != nil {
		return model.Seat{}, err
	}
	e.w.Enqueue(gateway.UpsertSeatOp(e.owner, s))
	return e.typed(s), nil
}

// AddBlock adds a rectangular block of seats anchored at the grid origin.
// Each seat occupies ItemWidth x ItemHeight cells, so neighbours are
// ItemWidth+HSpacing columns apart.  The whole block must fit the bounds and
// hold at most MaxBlock seats; both are checked before any seat is generated.
func (e *Editor) AddBlock(req BlockRequest) ([]model.Seat, error) {
	if req.Rows <= 0 || req.Columns <= 0 || req.HSpacing < 0 || req.VSpacing < 0 {
		return nil, model.ErrInvalidBlock
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if n, ok := grid.BlockSize(req.Rows, req.Columns); !ok || n > e.opts.MaxBlock {
		return nil, fmt.Errorf("%w: at most %d", model.ErrBlockTooLarge, e.opts.MaxBlock)
	}
	if req.HSpacing > math.MaxInt-e.opts.ItemWidth || req.VSpacing > math.MaxInt-e.opts.ItemHeight {
		return nil, model.ErrBlockOutOfBounds
	}
	hStep, vStep := req.HSpacing+e.opts.ItemWidth-1, req.VSpacing+e.opts.ItemHeight-1
	last, ok := grid.BlockExtent(req.Rows, req.Columns, hStep, vStep)
	if !ok || !e.opts.Bounds.Contains(last) {
		return nil, model.ErrBlockOutOfBounds
	}

	cells := grid.GenerateBlock(req.Rows, req.Columns, hStep, vStep)
	out := make([]model.Seat, 0, len(cells))
	for _, c := range cells {
		s := model.Seat{ID: c.ID, X: c.Cell.Col, Y: c.Cell.Row}
		if err := e.store.Seats.Add(s); err != nil {
			return out, err
		}
		e.w.Enqueue(gateway.UpsertSeatOp(e.owner, s))
		out = append(out, e.typed(s))
	}
	return out, nil
}

// MoveSeat puts a seat on cell c.
func (e *Editor) MoveSeat(id string, c grid.Cell) (model.Seat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.store.Seats.Get(id)
	if !ok {
		return model.Seat{}, model.ErrNotFound
	}
	if !e.opts.Bounds.Contains(c) {
		return model.Seat{}, fmt.Errorf("%w: cell (%d,%d) outside the grid", model.ErrInvalidField, c.Col, c.Row)
	}
	moved := s.At(c.Col, c.Row)
	if err := e.store.Seats.Replace(moved); err != nil {
		return model.Seat{}, err
	}
	delete(e.seats, id)
	e.w.Enqueue(gateway.UpsertSeatOp(e.owner, moved))
	return e.typed(moved), nil
}

// DeleteSeat removes a seat.
func (e *Editor) DeleteSeat(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteSeatLocked(id)
}

func (e *Editor) deleteSeatLocked(id string) error {
	if _, ok := e.store.Seats.Remove(id); !ok {
		return model.ErrNotFound
	}
	delete(e.seats, id)
	e.w.Enqueue(gateway.DeleteSeatOp(e.owner, id))
	return nil
}

// DragSeat feeds a gesture to the seat's drag controller.  A commit inside
// the grid moves the seat; a drop outside the grid deletes it.
func (e *Editor) DragSeat(id string, events []drag.Event) (DragResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.store.Seats.Get(id)
	if !ok {
		return DragResult{}, model.ErrNotFound
	}
	ctl := e.controllerLocked(e.seats, id, grid.Cell{Col: s.X, Row: s.Y})
	res, err := e.feed(ctl, events)
	if err != nil {
		delete(e.seats, id)
		return DragResult{}, err
	}

	out := DragResult{Outcome: res.Outcome.String(), Translate: res.Translate}
	switch res.Outcome {
	case drag.Moved:
		moved := s.At(res.Cell.Col, res.Cell.Row)
		if err := e.store.Seats.Replace(moved); err != nil {
			return DragResult{}, err
		}
		e.w.Enqueue(gateway.UpsertSeatOp(e.owner, moved))
		typed := e.typed(moved)
		out.Seat = &typed
	case drag.Deleted:
		if err := e.deleteSeatLocked(id); err != nil {
			return DragResult{}, err
		}
	default:
		typed := e.typed(s)
		out.Seat = &typed
	}
	return out, nil
}

// BeginTextPlacement arms the next PlaceText click.
func (e *Editor) BeginTextPlacement() {
	e.mu.Lock()
	e.placing = true
	e.mu.Unlock()
}

// CancelTextPlacement disarms text placement.
func (e *Editor) CancelTextPlacement() {
	e.mu.Lock()
	e.placing = false
	e.mu.Unlock()
}

// PlaceText creates a label at the cell under the pixel position p.  The
// click is ignored, returning nil, when placement is not armed or p lies
// outside the grid; placement stays armed in the latter case.
func (e *Editor) PlaceText(p grid.Point) (*model.TextLabel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.placing || p.X < 0 || p.Y < 0 {
		return nil, nil
	}
	c := grid.ToGridCoords(p, e.opts.CellSize)
	if !e.opts.Bounds.Contains(c) {
		return nil, nil
	}
	t := model.TextLabel{ID: grid.NewID("text"), X: c.Col, Y: c.Row, Value: model.DefaultTextValue}
	if err := e.store.Labels.Add(t); err != nil {
		return nil, err
	}
	e.placing = false
	e.w.Enqueue(gateway.UpsertTextOp(e.owner, t))
	return &t, nil
}

// EditText applies patch to a label.
func (e *Editor) EditText(id string, patch TextPatch) (model.TextLabel, error) {
	if patch.Value != nil && *patch.Value == "" {
		return model.TextLabel{}, fmt.Errorf("%w: text value must not be empty", model.ErrInvalidField)
	}
	if (patch.Width != nil && *patch.Width <= 0) || (patch.Height != nil && *patch.Height <= 0) {
		return model.TextLabel{}, fmt.Errorf("%w: text size must be positive", model.ErrInvalidField)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.store.Labels.Get(id)
	if !ok {
		return model.TextLabel{}, model.ErrNotFound
	}
	if patch.Value != nil {
		t.Value = *patch.Value
	}
	if patch.Width != nil {
		w := *patch.Width
		t.Width = &w
	}
	if patch.Height != nil {
		h := *patch.Height
		t.Height = &h
	}
	if err := e.store.Labels.Replace(t); err != nil {
		return model.TextLabel{}, err
	}
	e.w.Enqueue(gateway.UpsertTextOp(e.owner, t))
	return t, nil
}

// DeleteText removes a label.
func (e *Editor) DeleteText(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteTextLocked(id)
}

func (e *Editor) deleteTextLocked(id string) error {
	if _, ok := e.store.Labels.Remove(id); !ok {
		return model.ErrNotFound
	}
	delete(e.texts, id)
	e.w.Enqueue(gateway.DeleteTextOp(e.owner, id))
	return nil
}

// DragText is DragSeat for labels.
func (e *Editor) DragText(id string, events []drag.Event) (DragResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.store.Labels.Get(id)
	if !ok {
		return DragResult{}, model.ErrNotFound
	}
	ctl := e.controllerLocked(e.texts, id, grid.Cell{Col: t.X, Row: t.Y})
	res, err := e.feed(ctl, events)
	if err != nil {
		delete(e.texts, id)
		return DragResult{}, err
	}

	out := DragResult{Outcome: res.Outcome.String(), Translate: res.Translate}
	switch res.Outcome {
	case drag.Moved:
		moved := t.At(res.Cell.Col, res.Cell.Row)
		if err := e.store.Labels.Replace(moved); err != nil {
			return DragResult{}, err
		}
		e.w.Enqueue(gateway.UpsertTextOp(e.owner, moved))
		out.Label = &moved
	case drag.Deleted:
		if err := e.deleteTextLocked(id); err != nil {
			return DragResult{}, err
		}
	default:
		out.Label = &t
	}
	return out, nil
}

// SetSeatType changes the icon family of every seat.
func (e *Editor) SetSeatType(t model.SeatType) error {
	parsed, ok := model.ParseSeatType(string(t))
	if !ok || t == "" {
		return fmt.Errorf("%w: unknown seat type %q", model.ErrInvalidField, t)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SeatType = parsed
	e.w.Enqueue(gateway.SetSeatTypeOp(e.owner, parsed))
	return nil
}

// SetCellSize changes the pixel size of a grid cell.  Seat cells are kept;
// pending drags are dropped because their pixel origins changed.
func (e *Editor) SetCellSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: grid size must be positive", model.ErrInvalidField)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.CellSize = size
	e.resetDragsLocked()
	return nil
}

// Snapshot returns a copy of the editor state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		OwnerID:     e.owner,
		Layout:      e.store.Layout(),
		GridSize:    e.opts.CellSize,
		ItemWidth:   e.opts.ItemWidth,
		ItemHeight:  e.opts.ItemHeight,
		Bounds:      e.opts.Bounds,
		PlacingText: e.placing,
		SeatTypes:   model.SeatTypes,
		Sync:        e.w.Status(e.owner),
	}
}

func (e *Editor) typed(s model.Seat) model.Seat {
	s.Type = e.store.SeatType
	return s
}

func (e *Editor) controllerLocked(m map[string]*drag.Controller, id string, origin grid.Cell) *drag.Controller {
	ctl, ok := m[id]
	if !ok || ctl.Origin() != origin {
		ctl = drag.New(origin, drag.Options{
			CellSize:           e.opts.CellSize,
			ActivationDistance: e.opts.ActivationDistance,
			Bounds:             e.opts.Bounds,
		})
		m[id] = ctl
	}
	return ctl
}

// feed applies events in order and returns the last result.
func (e *Editor) feed(ctl *drag.Controller, events []drag.Event) (drag.Result, error) {
	if len(events) == 0 {
		return drag.Result{}, fmt.Errorf("%w: no drag events", model.ErrInvalidField)
	}
	var res drag.Result
	for _, ev := range events {
		r, err := ctl.Handle(ev)
		if err != nil {
			if errors.Is(err, drag.ErrInvalidTransition) {
				return drag.Result{}, fmt.Errorf("%w: %w", model.ErrInvalidField, err)
			}
			return drag.Result{}, err
		}
		res = r
	}
	return res, nil
}

func (e *Editor) resetDragsLocked() {
	e.seats = make(map[string]*drag.Controller)
	e.texts = make(map[string]*drag.Controller)
}
