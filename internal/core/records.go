package core

// records.go implements Records mode: each output column aggregates one or
// more ranges into a map keyed by RoleKey, and the union of keys across all
// columns becomes the output row set.
//
// Orientation is a heuristic on range shape, not a user declaration:
//
//	single column -> keyed by row
//	single row    -> keyed by column
//	2-D block     -> keyed by row, the row's non-empty cells space-joined
//
// Downstream key sorting and filter alignment depend on this exact
// precedence, so it must not change.

import (
	"fmt"
	"sort"
	"strings"
)

// BuildRecords maps the configured output columns into one record per
// RoleKey. Invalid range references are skipped with a warning; the run
// only fails outright when the configuration has no columns at all.
func BuildRecords(g Grid, cfg RecordsConfig) (*RunResult, error) {
	if len(cfg.Columns) == 0 {
		return nil, fmt.Errorf("%w: at least one output column", ErrMissingRange)
	}

	rawHeaders := make([]string, len(cfg.Columns))
	for i, spec := range cfg.Columns {
		rawHeaders[i] = spec.Header
	}
	headers := DedupeHeaders(rawHeaders)

	res := &RunResult{Headers: headers}

	// Per-column contribution maps, in header order.
	contrib := make([]map[RoleKey]string, len(cfg.Columns))
	keySet := make(map[RoleKey]struct{})

	for i, spec := range cfg.Columns {
		values, warnings := collectColumn(g, headers[i], spec.Ranges)
		res.Warnings = append(res.Warnings, warnings...)
		contrib[i] = values
		for k := range values {
			keySet[k] = struct{}{}
		}
	}

	keys := make([]RoleKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		rec := Record{Fields: make(map[string]string, len(headers))}
		allEmpty := true
		for i, h := range headers {
			v := contrib[i][k]
			rec.Fields[h] = v
			if !isBlank(v) {
				allEmpty = false
			}
		}
		if allEmpty {
			continue
		}
		if cfg.RequiredColumn != "" && isBlank(rec.Fields[cfg.RequiredColumn]) {
			continue
		}
		switch k.Axis {
		case AxisRow:
			rec.Origin = CellRef{Row: k.Index, Col: -1}
		case AxisCol:
			rec.Origin = CellRef{Row: -1, Col: k.Index}
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

// collectColumn merges one column's ranges into a single keyed map. Later
// ranges overwrite earlier ones on key collision.
func collectColumn(g Grid, header string, refs []string) (map[RoleKey]string, []string) {
	values := make(map[RoleKey]string)
	var warnings []string
	seenAxes := make(map[Axis]bool)

	for _, ref := range refs {
		rng, err := ParseRange(ref)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("column %q: skipping invalid range %q", header, ref))
			continue
		}
		rng = rng.Normalize(g)

		switch {
		case rng.IsSingleCol():
			seenAxes[AxisRow] = true
			for row := rng.R0; row <= rng.R1; row++ {
				values[RoleKey{Axis: AxisRow, Index: row}] = g.Cell(row, rng.C0)
			}

		case rng.IsSingleRow():
			seenAxes[AxisCol] = true
			for col := rng.C0; col <= rng.C1; col++ {
				values[RoleKey{Axis: AxisCol, Index: col}] = g.Cell(rng.R0, col)
			}

		default:
			// Ambiguous orientation: map by row and join the row's
			// non-empty cells. Lossy, so it always warns.
			seenAxes[AxisRow] = true
			warnings = append(warnings, fmt.Sprintf(
				"column %q: range %q is a block; mapping by row and joining cell values", header, ref))
			for row := rng.R0; row <= rng.R1; row++ {
				var parts []string
				for col := rng.C0; col <= rng.C1; col++ {
					if v := g.Cell(row, col); !isBlank(v) {
						parts = append(parts, v)
					}
				}
				values[RoleKey{Axis: AxisRow, Index: row}] = strings.Join(parts, " ")
			}
		}
	}

	if seenAxes[AxisRow] && seenAxes[AxisCol] {
		warnings = append(warnings, fmt.Sprintf(
			"column %q: ranges mix row-wise and column-wise orientation; values are combined but may not line up", header))
	}

	return values, warnings
}
