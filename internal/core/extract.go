package core

// extract.go reads rectangular and vector slices out of a grid. The caller
// is expected to have normalized the range first; all cell access goes
// through Grid.Cell, which tolerates jagged rows.

// Block returns the inclusive rectangular slice covered by the range.
func Block(g Grid, r Range) [][]string {
	out := make([][]string, 0, r.NumRows())
	for row := r.R0; row <= r.R1; row++ {
		line := make([]string, 0, r.NumCols())
		for col := r.C0; col <= r.C1; col++ {
			line = append(line, g.Cell(row, col))
		}
		out = append(out, line)
	}
	return out
}

// Vector returns the range as an ordered sequence: top-to-bottom for a
// single column, left-to-right for a single row. A 2-D range flattens
// row-major; callers are expected to pass 1-D ranges, so the flattening is
// a defensive fallback rather than a primary mode.
func Vector(g Grid, r Range) []string {
	if r.IsSingleCol() {
		out := make([]string, 0, r.NumRows())
		for row := r.R0; row <= r.R1; row++ {
			out = append(out, g.Cell(row, r.C0))
		}
		return out
	}
	if r.IsSingleRow() {
		out := make([]string, 0, r.NumCols())
		for col := r.C0; col <= r.C1; col++ {
			out = append(out, g.Cell(r.R0, col))
		}
		return out
	}
	out := make([]string, 0, r.Len())
	for row := r.R0; row <= r.R1; row++ {
		for col := r.C0; col <= r.C1; col++ {
			out = append(out, g.Cell(row, col))
		}
	}
	return out
}
