package core

// coords.go implements the A1 coordinate model: parsing user-entered range
// references ("B2", "B2:D10") into normalized rectangular index ranges.
//
// Column letters are base-26 with no zero digit (A=1 ... Z=26, AA=27), rows
// are 1-based digits. Parsing is case-insensitive and whitespace-tolerant.
// Malformed references yield ErrInvalidReference rather than a panic;
// callers record a warning and skip the contribution.

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidReference is returned for range strings that do not match the
// "<COL><ROW>" or "<COL><ROW>:<COL><ROW>" syntax.
var ErrInvalidReference = errors.New("invalid range reference")

var rangeRefRegex = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)(?::([A-Za-z]+)([0-9]+))?$`)

// Range is a rectangular, inclusive, 0-indexed grid area, normalized so
// R0 <= R1 and C0 <= C1.
type Range struct {
	R0, C0, R1, C1 int
}

// ParseRange parses an A1-style reference into a Range. A single-cell
// reference collapses to that cell.
func ParseRange(ref string) (Range, error) {
	m := rangeRefRegex.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	c0 := colIndex(m[1])
	r0, err := strconv.Atoi(m[2])
	if err != nil || r0 < 1 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	r1, c1 := r0, c0
	if m[3] != "" {
		c1 = colIndex(m[3])
		r1, err = strconv.Atoi(m[4])
		if err != nil || r1 < 1 {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
		}
	}

	rng := Range{R0: r0 - 1, C0: c0, R1: r1 - 1, C1: c1}
	rng.reorder()
	return rng, nil
}

// Normalize clamps the range to the grid's bounds. Out-of-bound areas are
// clamped silently: users routinely paste references sized for a different
// sheet, and a hard failure would make every template brittle.
func (r Range) Normalize(g Grid) Range {
	rows, cols := g.Rows(), g.Cols()
	if rows == 0 || cols == 0 {
		return Range{}
	}
	r.reorder()
	r.R0 = clamp(r.R0, 0, rows-1)
	r.R1 = clamp(r.R1, 0, rows-1)
	r.C0 = clamp(r.C0, 0, cols-1)
	r.C1 = clamp(r.C1, 0, cols-1)
	return r
}

func (r *Range) reorder() {
	if r.R0 > r.R1 {
		r.R0, r.R1 = r.R1, r.R0
	}
	if r.C0 > r.C1 {
		r.C0, r.C1 = r.C1, r.C0
	}
}

// String renders the range back to A1 notation. Parse of a rendered range
// round-trips to the same normalized range.
func (r Range) String() string {
	if r.IsSingleCell() {
		return colName(r.C0) + strconv.Itoa(r.R0+1)
	}
	return colName(r.C0) + strconv.Itoa(r.R0+1) + ":" + colName(r.C1) + strconv.Itoa(r.R1+1)
}

// IsSingleRow reports whether the range spans exactly one row.
func (r Range) IsSingleRow() bool { return r.R0 == r.R1 }

// IsSingleCol reports whether the range spans exactly one column.
func (r Range) IsSingleCol() bool { return r.C0 == r.C1 }

// IsSingleCell reports whether the range is one cell.
func (r Range) IsSingleCell() bool { return r.IsSingleRow() && r.IsSingleCol() }

// IsVector reports whether the range reduces to a 1-D sequence.
func (r Range) IsVector() bool { return r.IsSingleRow() || r.IsSingleCol() }

// NumRows returns the row count of the range.
func (r Range) NumRows() int { return r.R1 - r.R0 + 1 }

// NumCols returns the column count of the range.
func (r Range) NumCols() int { return r.C1 - r.C0 + 1 }

// Len returns the element count of a vector range (row-major for blocks).
func (r Range) Len() int { return r.NumRows() * r.NumCols() }

// ContainsRow reports whether the absolute row falls inside the range.
func (r Range) ContainsRow(row int) bool { return row >= r.R0 && row <= r.R1 }

// ContainsCol reports whether the absolute column falls inside the range.
func (r Range) ContainsCol(col int) bool { return col >= r.C0 && col <= r.C1 }

// Contains reports whether the cell falls inside the range on both axes.
func (r Range) Contains(ref CellRef) bool {
	return r.ContainsRow(ref.Row) && r.ContainsCol(ref.Col)
}

// colIndex converts column letters to a 0-based index (A=0, Z=25, AA=26).
func colIndex(letters string) int {
	n := 0
	for _, ch := range strings.ToUpper(letters) {
		n = n*26 + int(ch-'A') + 1
	}
	return n - 1
}

// colName converts a 0-based column index back to letters.
func colName(idx int) string {
	n := idx + 1
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
