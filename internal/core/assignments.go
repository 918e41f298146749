package core

// assignments.go implements Assignments mode: a 2-D "marked matrix" is
// expanded against two 1-D label vectors into relational pairs. A mark in
// matrix cell (r, c) pairs the Object A label aligned with that cell's
// position along A's axis with the Object B label aligned symmetrically.
//
// Size mismatches between the matrix and the label vectors are a routine
// user error, so out-of-bounds marks are counted and skipped rather than
// failing the run.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotVector is returned when an object range does not reduce to a
// single row or single column.
var ErrNotVector = errors.New("range must be a single column or row")

// ErrMissingRange is returned when a required range is absent from the
// configuration.
var ErrMissingRange = errors.New("missing required range")

// BuildAssignments expands the marked matrix into pair records. Structural
// problems (object range not a vector, missing matrix) fail the whole run;
// per-mark problems are counted in the result's Stats and reported as a
// diagnostic warning line.
func BuildAssignments(g Grid, cfg AssignmentsConfig) (*RunResult, error) {
	aRange, err := vectorRange(g, "Object A", cfg.ObjectARange)
	if err != nil {
		return nil, err
	}
	bRange, err := vectorRange(g, "Object B", cfg.ObjectBRange)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.MatrixRange) == "" {
		return nil, fmt.Errorf("%w: matrix", ErrMissingRange)
	}
	matrix, err := ParseRange(cfg.MatrixRange)
	if err != nil {
		return nil, fmt.Errorf("matrix: %w", err)
	}
	matrix = matrix.Normalize(g)

	marks := make(map[string]struct{}, len(cfg.Marks))
	for _, m := range cfg.Marks {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			marks[m] = struct{}{}
		}
	}
	if len(marks) == 0 {
		return nil, fmt.Errorf("%w: at least one mark value", ErrMissingRange)
	}

	aHeader := cfg.ObjectAHeader
	if aHeader == "" {
		aHeader = DefaultObjectAHeader
	}
	bHeader := cfg.ObjectBHeader
	if bHeader == "" {
		bHeader = DefaultObjectBHeader
	}

	rawHeaders := []string{aHeader, bHeader}
	for _, ex := range cfg.Extra {
		rawHeaders = append(rawHeaders, ex.Header)
	}
	headers := DedupeHeaders(rawHeaders)
	aHeader, bHeader = headers[0], headers[1]

	res := &RunResult{Headers: headers, Stats: &AssignmentStats{}}
	aVec := Vector(g, aRange)
	bVec := Vector(g, bRange)

	for row := matrix.R0; row <= matrix.R1; row++ {
		for col := matrix.C0; col <= matrix.C1; col++ {
			cell := strings.ToLower(strings.TrimSpace(g.Cell(row, col)))
			if _, ok := marks[cell]; !ok {
				continue
			}
			res.Stats.Marked++

			aIdx := axisOffset(aRange, matrix, row, col)
			bIdx := axisOffset(bRange, matrix, row, col)
			if aIdx < 0 || aIdx >= len(aVec) || bIdx < 0 || bIdx >= len(bVec) {
				res.Stats.SkippedBounds++
				continue
			}

			labelA := strings.TrimSpace(aVec[aIdx])
			labelB := strings.TrimSpace(bVec[bIdx])
			if labelA == "" {
				res.Stats.SkippedNoA++
				continue
			}
			if labelB == "" {
				res.Stats.SkippedNoB++
				continue
			}

			rec := Record{
				Fields: map[string]string{aHeader: labelA, bHeader: labelB},
				Origin: CellRef{Row: row, Col: col},
			}
			for i, ex := range cfg.Extra {
				value, warns := resolveExtra(g, rec.Origin, ex)
				rec.Fields[headers[2+i]] = value
				res.Warnings = append(res.Warnings, warns...)
			}
			res.Records = append(res.Records, rec)
			res.Stats.Emitted++
		}
	}

	res.Warnings = append(res.Warnings, res.Stats.Summary())
	return res, nil
}

// axisOffset derives the label-vector index for a matrix cell: a vertical
// vector indexes by row offset from the matrix top, a horizontal one by
// column offset from the matrix left.
func axisOffset(vec, matrix Range, row, col int) int {
	if vec.IsSingleCol() {
		return row - matrix.R0
	}
	return col - matrix.C0
}

// resolveExtra resolves an extra column's value for one pair by aligning
// each of its ranges against the mark cell. Non-empty resolutions across
// all ranges are space-joined.
func resolveExtra(g Grid, origin CellRef, spec ColumnSpec) (string, []string) {
	var parts []string
	var warnings []string
	for _, ref := range spec.Ranges {
		rng, err := ParseRange(ref)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("extra column %q: skipping invalid range %q", spec.Header, ref))
			continue
		}
		for _, v := range AlignValues(g, origin, rng.Normalize(g)) {
			if !isBlank(v) {
				parts = append(parts, strings.TrimSpace(v))
			}
		}
	}
	return strings.Join(parts, " "), warnings
}

// Summary renders the counters as one diagnostic line.
func (s AssignmentStats) Summary() string {
	return fmt.Sprintf("matrix scan: %d marked cells, %d pairs emitted, %d skipped (index out of bounds), %d skipped (missing Object A label), %d skipped (missing Object B label)",
		s.Marked, s.Emitted, s.SkippedBounds, s.SkippedNoA, s.SkippedNoB)
}

// vectorRange parses and validates an object range, which must reduce to a
// single row or column after normalization.
func vectorRange(g Grid, name, ref string) (Range, error) {
	if strings.TrimSpace(ref) == "" {
		return Range{}, fmt.Errorf("%w: %s", ErrMissingRange, name)
	}
	rng, err := ParseRange(ref)
	if err != nil {
		return Range{}, fmt.Errorf("%s: %w", name, err)
	}
	rng = rng.Normalize(g)
	if !rng.IsVector() {
		return Range{}, fmt.Errorf("%s: %w", name, ErrNotVector)
	}
	return rng, nil
}
