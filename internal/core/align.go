package core

// align.go implements "auto" sheet alignment: given a record's origin cell
// and a target range, resolve the cell value(s) a filter or extra column
// should compare against. The cascade runs from most to least specific so
// an exact match always wins and a misaligned range still resolves to
// something rather than silently matching nothing.

// AlignValues resolves comparison values from rng relative to origin:
//
//  1. single-cell range: its value only when origin is exactly that cell
//  2. origin inside the range on both axes: that one cell
//  3. single-column range containing origin's row: that row's cell
//  4. single-row range containing origin's column: that column's cell
//  5. block containing origin's row: the full row slice
//  6. block containing origin's column: the full column slice
//  7. otherwise: every cell in the range, flattened
//
// The final fallback is intentionally permissive: a misconfigured range
// compares against the whole area instead of silently never matching.
func AlignValues(g Grid, origin CellRef, rng Range) []string {
	if rng.IsSingleCell() {
		if origin.Row == rng.R0 && origin.Col == rng.C0 {
			return []string{g.Cell(rng.R0, rng.C0)}
		}
		return nil
	}

	if rng.Contains(origin) {
		return []string{g.Cell(origin.Row, origin.Col)}
	}

	if rng.IsSingleCol() && rng.ContainsRow(origin.Row) {
		return []string{g.Cell(origin.Row, rng.C0)}
	}

	if rng.IsSingleRow() && rng.ContainsCol(origin.Col) {
		return []string{g.Cell(rng.R0, origin.Col)}
	}

	if rng.ContainsRow(origin.Row) {
		out := make([]string, 0, rng.NumCols())
		for col := rng.C0; col <= rng.C1; col++ {
			out = append(out, g.Cell(origin.Row, col))
		}
		return out
	}

	if rng.ContainsCol(origin.Col) {
		out := make([]string, 0, rng.NumRows())
		for row := rng.R0; row <= rng.R1; row++ {
			out = append(out, g.Cell(row, origin.Col))
		}
		return out
	}

	return Vector(g, rng)
}
