package gateway

import (
	"context"
	"sort"
	"sync"

	"github.com/iliyamo/seating-plan/internal/model"
)

// Memory is an in-process Gateway.  It backs STORE_BACKEND=memory and tests.
type Memory struct {
	mu           sync.Mutex
	layouts      map[string]*memLayout
	reservations []model.Reservation
}

type memLayout struct {
	seats    map[string]model.Seat
	labels   map[string]model.TextLabel
	order    []string
	seatType model.SeatType
}

// NewMemory returns an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{layouts: make(map[string]*memLayout)}
}

func (m *Memory) layout(owner string) *memLayout {
	l, ok := m.layouts[owner]
	if !ok {
		l = &memLayout{
			seats:    make(map[string]model.Seat),
			labels:   make(map[string]model.TextLabel),
			seatType: model.DefaultSeatType,
		}
		m.layouts[owner] = l
	}
	return l
}

func (m *Memory) FetchLayout(_ context.Context, ownerID string) (model.Layout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.layout(ownerID)
	out := model.Layout{
		Seats:      []model.Seat{},
		TextLabels: []model.TextLabel{},
		SeatType:   l.seatType,
	}
	for _, id := range l.order {
		if s, ok := l.seats[id]; ok {
			s.Type = l.seatType
			out.Seats = append(out.Seats, s)
			continue
		}
		if t, ok := l.labels[id]; ok {
			out.TextLabels = append(out.TextLabels, t)
		}
	}
	return out, nil
}

func (m *Memory) UpsertSeatPosition(_ context.Context, ownerID string, seat model.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.layout(ownerID)
	if _, ok := l.seats[seat.ID]; !ok {
		l.order = append(l.order, seat.ID)
	}
	l.seats[seat.ID] = seat
	return nil
}

func (m *Memory) DeleteSeat(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.layout(ownerID)
	if _, ok := l.seats[id]; ok {
		delete(l.seats, id)
		l.removeOrder(id)
	}
	return nil
}

func (m *Memory) UpsertTextLabel(_ context.Context, ownerID string, label model.TextLabel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.layout(ownerID)
	if _, ok := l.labels[label.ID]; !ok {
		l.order = append(l.order, label.ID)
	}
	l.labels[label.ID] = label
	return nil
}

func (m *Memory) DeleteTextLabel(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.layout(ownerID)
	if _, ok := l.labels[id]; ok {
		delete(l.labels, id)
		l.removeOrder(id)
	}
	return nil
}

func (m *Memory) SetSeatType(_ context.Context, ownerID string, t model.SeatType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout(ownerID).seatType = t
	return nil
}

func (m *Memory) FetchReservedSeatIDs(_ context.Context, venueID, date, time string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, r := range m.reservations {
		if r.VenueID == venueID && r.Date == date && r.Time == time {
			ids = append(ids, r.SeatIDs...)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) CreateReservation(_ context.Context, r model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := make(map[string]struct{})
	for _, prev := range m.reservations {
		if prev.VenueID == r.VenueID && prev.Date == r.Date && prev.Time == r.Time {
			for _, id := range prev.SeatIDs {
				taken[id] = struct{}{}
			}
		}
	}
	for _, id := range r.SeatIDs {
		if _, ok := taken[id]; ok {
			return model.ErrSeatsTaken
		}
	}
	r.SeatIDs = append([]string(nil), r.SeatIDs...)
	m.reservations = append(m.reservations, r)
	return nil
}

func (m *Memory) ListReservations(_ context.Context, venueID, date string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for i := len(m.reservations) - 1; i >= 0; i-- {
		r := m.reservations[i]
		if r.VenueID == venueID && r.Date == date {
			r.SeatIDs = append([]string(nil), r.SeatIDs...)
			out = append(out, r)
		}
	}
	return out, nil
}

// Reservations returns a copy of every stored reservation.
func (m *Memory) Reservations() []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Reservation(nil), m.reservations...)
}

func (l *memLayout) removeOrder(id string) {
	for i, v := range l.order {
		if v == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}
