// Package grid converts between pixel positions and grid cells of a seating
// layout.  Cells are addressed by integer (column, row); pixels are derived.
package grid

import (
	"math"

	"github.com/google/uuid"
)

// Point is a pixel position or displacement.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Length is the euclidean norm of p.
func (p Point) Length() float64 { return math.Hypot(p.X, p.Y) }

// Cell is a grid address.
type Cell struct {
	Col int `json:"x"`
	Row int `json:"y"`
}

// ToGridCoords converts a pixel position to the cell containing it using
// truncating division.  cellSize must be positive.
func ToGridCoords(p Point, cellSize int) Cell {
	size := float64(cellSize)
	return Cell{Col: int(p.X / size), Row: int(p.Y / size)}
}

// ToPixelCoords returns the pixel origin of c.
func ToPixelCoords(c Cell, cellSize int) Point {
	return Point{X: float64(c.Col * cellSize), Y: float64(c.Row * cellSize)}
}

// Snap moves p to the nearest cell origin.
func Snap(p Point, cellSize int) Point {
	size := float64(cellSize)
	return Point{
		X: math.Round(p.X/size) * size,
		Y: math.Round(p.Y/size) * size,
	}
}

// Bounds is the drop area of the grid in cells.  A zero dimension leaves that
// axis unbounded; negative cells are always outside.
type Bounds struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Contains reports whether c lies inside b.
func (b Bounds) Contains(c Cell) bool {
	if c.Col < 0 || c.Row < 0 {
		return false
	}
	if b.Columns > 0 && c.Col >= b.Columns {
		return false
	}
	if b.Rows > 0 && c.Row >= b.Rows {
		return false
	}
	return true
}

// NewID returns a fresh "<prefix>-<uuid>" identifier.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
