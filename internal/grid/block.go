package grid

import "math"

// SeatIDPrefix prefixes every generated seat id.
const SeatIDPrefix = "seat"

// BlockCell is one position of a generated seat block.  Index is the
// (column, row) position inside the block; Cell is the grid offset.
type BlockCell struct {
	ID    string
	Index Cell
	Cell  Cell
}

// GenerateBlock lays out rows*columns cells in row-major order.  hSpacing and
// vSpacing are the number of empty cells left between neighbours, so cell
// (c, r) of the block sits at (c*(1+hSpacing), r*(1+vSpacing)).  Each cell
// gets a fresh seat id.  Negative inputs yield an empty block.
func GenerateBlock(rows, columns, hSpacing, vSpacing int) []BlockCell {
	if rows <= 0 || columns <= 0 || hSpacing < 0 || vSpacing < 0 {
		return nil
	}
	if _, ok := BlockSize(rows, columns); !ok {
		return nil
	}
	out := make([]BlockCell, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			out = append(out, BlockCell{
				ID:    NewID(SeatIDPrefix),
				Index: Cell{Col: c, Row: r},
				Cell:  Cell{Col: c * (1 + hSpacing), Row: r * (1 + vSpacing)},
			})
		}
	}
	return out
}

// BlockSize returns rows*columns.  ok is false when either side is not
// positive or the product overflows.
func BlockSize(rows, columns int) (n int, ok bool) {
	if rows <= 0 || columns <= 0 || rows > math.MaxInt/columns {
		return 0, false
	}
	return rows * columns, true
}

// BlockExtent returns the offset of the last cell GenerateBlock would lay out
// for the same arguments, without generating the block.  ok is false for
// invalid input or when the offset overflows.
func BlockExtent(rows, columns, hSpacing, vSpacing int) (last Cell, ok bool) {
	if rows <= 0 || columns <= 0 || hSpacing < 0 || vSpacing < 0 {
		return Cell{}, false
	}
	col, ok := stride(columns-1, hSpacing)
	if !ok {
		return Cell{}, false
	}
	row, ok := stride(rows-1, vSpacing)
	if !ok {
		return Cell{}, false
	}
	return Cell{Col: col, Row: row}, true
}

// stride computes i*(1+spacing) for non-negative arguments.
func stride(i, spacing int) (int, bool) {
	if spacing == math.MaxInt {
		return 0, i == 0
	}
	step := spacing + 1
	if i > 0 && i > math.MaxInt/step {
		return 0, false
	}
	return i * step, true
}
