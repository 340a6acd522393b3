package model

// DefaultTextValue is the content of a freshly placed label.
const DefaultTextValue = "Text"

// TextLabel is a free text widget on the layout grid.  Width and Height are
// the resized box in pixels; nil means the client default.
type TextLabel struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Value  string `json:"value"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// Key implements layout.Keyed.
func (t TextLabel) Key() string { return t.ID }

// At returns a copy of t moved to column x, row y.
func (t TextLabel) At(x, y int) TextLabel {
	t.X, t.Y = x, y
	return t
}

// Layout is everything stored for one owner's seating plan.
type Layout struct {
	Seats      []Seat      `json:"seats"`
	TextLabels []TextLabel `json:"text_labels"`
	SeatType   SeatType    `json:"seat_type"`
}
