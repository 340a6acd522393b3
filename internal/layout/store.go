// Package layout keeps the in-memory seat and text-label collections of a
// seating plan.  Collections preserve insertion order and reject duplicate ids.
package layout

import (
	"errors"
	"fmt"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ErrDuplicateID is returned when an entity with the same id already exists.
var ErrDuplicateID = errors.New("duplicate id")

// ErrNotFound is returned when no entity has the requested id.  It matches
// model.ErrNotFound under errors.Is.
var ErrNotFound = fmt.Errorf("layout: %w", model.ErrNotFound)

// Keyed is implemented by entities stored in a Collection.
type Keyed interface {
	Key() string
}

// Collection is an ordered set of entities indexed by id.
type Collection[T Keyed] struct {
	items []T
	index map[string]int
}

// NewCollection returns an empty collection.
func NewCollection[T Keyed]() *Collection[T] {
	return &Collection[T]{index: make(map[string]int)}
}

// Add appends v.  It fails with ErrDuplicateID when v's id is taken.
func (c *Collection[T]) Add(v T) error {
	if _, ok := c.index[v.Key()]; ok {
		return ErrDuplicateID
	}
	c.index[v.Key()] = len(c.items)
	c.items = append(c.items, v)
	return nil
}

// Replace swaps the entity with v's id for v, keeping its position.
func (c *Collection[T]) Replace(v T) error {
	i, ok := c.index[v.Key()]
	if !ok {
		return ErrNotFound
	}
	c.items[i] = v
	return nil
}

// Remove deletes the entity with the given id and returns it.
func (c *Collection[T]) Remove(id string) (T, bool) {
	var zero T
	i, ok := c.index[id]
	if !ok {
		return zero, false
	}
	v := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].Key()] = j
	}
	return v, true
}

// Get returns the entity with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	var zero T
	i, ok := c.index[id]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

// Has reports whether id is present.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int { return len(c.items) }

// All returns a copy of the entities in insertion order.
func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Reset replaces the contents with vs.  Entities whose id was already seen
// are skipped and counted in the returned value.
func (c *Collection[T]) Reset(vs []T) (skipped int) {
	c.items = c.items[:0]
	c.index = make(map[string]int, len(vs))
	for _, v := range vs {
		if err := c.Add(v); err != nil {
			skipped++
		}
	}
	return skipped
}

// Store is the full in-memory state of one seating plan.
type Store struct {
	Seats    *Collection[model.Seat]
	Labels   *Collection[model.TextLabel]
	SeatType model.SeatType
}

// NewStore returns an empty store with the default seat type.
func NewStore() *Store {
	return &Store{
		Seats:    NewCollection[model.Seat](),
		Labels:   NewCollection[model.TextLabel](),
		SeatType: model.DefaultSeatType,
	}
}

// Load replaces the store contents with l and returns how many duplicate
// entities were dropped.
func (s *Store) Load(l model.Layout) int {
	skipped := s.Seats.Reset(l.Seats)
	skipped += s.Labels.Reset(l.TextLabels)
	s.SeatType = l.SeatType
	if s.SeatType == "" {
		s.SeatType = model.DefaultSeatType
	}
	return skipped
}

// Layout returns a copy of the store as a model.Layout.  Each seat carries the
// layout seat type.
func (s *Store) Layout() model.Layout {
	seats := s.Seats.All()
	for i := range seats {
		seats[i].Type = s.SeatType
	}
	return model.Layout{
		Seats:      seats,
		TextLabels: s.Labels.All(),
		SeatType:   s.SeatType,
	}
}

// SeatIDs returns the ids of all seats in order.
func (s *Store) SeatIDs() []string {
	ids := make([]string, 0, s.Seats.Len())
	for _, st := range s.Seats.items {
		ids = append(ids, st.ID)
	}
	return ids
}
