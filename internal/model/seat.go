package model

import "strings"

// SeatType is the icon family used to render every seat of a layout.
// The type is stored once per layout, not per seat.
type SeatType string

const (
	SeatStandard   SeatType = "STANDARD"
	SeatVIP        SeatType = "VIP"
	SeatAccessible SeatType = "ACCESSIBLE"
)

// DefaultSeatType is used for layouts that never picked a type.
const DefaultSeatType = SeatStandard

// SeatTypes lists the selectable types in menu order.
var SeatTypes = []SeatType{SeatStandard, SeatVIP, SeatAccessible}

// ParseSeatType normalises raw into a SeatType.  An empty string maps to the
// default and DISABLED is accepted as an alias of ACCESSIBLE.
func ParseSeatType(raw string) (SeatType, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(SeatStandard):
		return SeatStandard, true
	case string(SeatVIP):
		return SeatVIP, true
	case string(SeatAccessible), "DISABLED":
		return SeatAccessible, true
	}
	return "", false
}

// Seat is a seat widget placed on the layout grid.  X is the grid column and
// Y the grid row; pixel positions are always derived from them.
type Seat struct {
	ID   string   `json:"id"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Type SeatType `json:"type,omitempty"`
}

// Key implements layout.Keyed.
func (s Seat) Key() string { return s.ID }

// At returns a copy of s moved to column x, row y.
func (s Seat) At(x, y int) Seat {
	s.X, s.Y = x, y
	return s
}
