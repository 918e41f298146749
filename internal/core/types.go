package core

import "strings"

// Grid is a decoded spreadsheet sheet: rows of string cells, 0-indexed.
// Loaders pad short rows so the grid is rectangular and pre-fill merged
// regions with the anchor cell's value; Cell still tolerates jagged input
// defensively. A Grid is read-only for the lifetime of a pipeline run.
type Grid [][]string

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int { return len(g) }

// Cols returns the width of the grid (the longest row).
func (g Grid) Cols() int {
	max := 0
	for _, row := range g {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Cell returns the value at (row, col), or "" when the coordinate falls
// outside the grid or inside a short row.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// CellRef is an absolute grid coordinate. Records carry one as hidden
// provenance: the cell a record originated from. An axis the record has no
// position on is -1 (a row-keyed record knows its row but not a column).
type CellRef struct {
	Row int
	Col int
}

// Axis tags a RoleKey as row-indexed or column-indexed.
type Axis int

const (
	AxisRow Axis = iota
	AxisCol
)

// RoleKey is the identity a Records-mode contribution is keyed by: a row
// index or a column index, never both. Keys sort rows-before-columns, each
// group ascending, which fixes the output row order.
type RoleKey struct {
	Axis  Axis
	Index int
}

// Less orders keys for output: all row keys before all column keys.
func (k RoleKey) Less(o RoleKey) bool {
	if k.Axis != o.Axis {
		return k.Axis < o.Axis
	}
	return k.Index < o.Index
}

// ColumnSpec describes one output column: a header plus an ordered list of
// A1 range references. Later ranges overwrite earlier ones when they
// contribute a value for the same key.
type ColumnSpec struct {
	Header string   `json:"header"`
	Ranges []string `json:"ranges"`
}

// RecordsConfig is the full configuration for a Records-mode run.
type RecordsConfig struct {
	Columns []ColumnSpec `json:"columns"`

	// RequiredColumn names an output header that must be non-empty for a
	// record to survive. Empty means no required column.
	RequiredColumn string `json:"requiredColumn,omitempty"`

	Filters []FilterCondition `json:"filters,omitempty"`
}

// AssignmentsConfig is the full configuration for an Assignments-mode run.
// ObjectARange and ObjectBRange must each reduce to a single row or a
// single column; MatrixRange is the 2-D marked area between them.
type AssignmentsConfig struct {
	ObjectAHeader string `json:"objectAHeader,omitempty"`
	ObjectARange  string `json:"objectARange"`
	ObjectBHeader string `json:"objectBHeader,omitempty"`
	ObjectBRange  string `json:"objectBRange"`
	MatrixRange   string `json:"matrixRange"`

	// Marks are the cell tokens that signal "relationship present",
	// matched case-insensitively against the trimmed cell value.
	Marks []string `json:"marks"`

	// Extra columns attach per-pair values resolved by positional
	// alignment against the mark cell.
	Extra []ColumnSpec `json:"extraColumns,omitempty"`

	Filters []FilterCondition `json:"filters,omitempty"`
}

// Default headers for the two assignment sides when the config leaves them
// blank.
const (
	DefaultObjectAHeader = "Object A"
	DefaultObjectBHeader = "Object B"
)

// Record is one output row: public fields keyed by output header, plus the
// hidden origin used only for sheet-range filter alignment. Origin is never
// serialized.
type Record struct {
	Fields map[string]string
	Origin CellRef
}

// AssignmentStats are the aggregate counters of a matrix expansion. They
// are always reported to the caller, both as counts and as a diagnostic
// warning line.
type AssignmentStats struct {
	Marked        int `json:"marked"`
	Emitted       int `json:"emitted"`
	SkippedBounds int `json:"skippedOutOfBounds"`
	SkippedNoA    int `json:"skippedMissingObjectA"`
	SkippedNoB    int `json:"skippedMissingObjectB"`
}

// RunResult is the outcome of one generation run: ordered headers, the
// surviving records, and every warning accumulated along the way. Stats
// is set only by Assignments mode.
type RunResult struct {
	Headers  []string
	Records  []Record
	Warnings []string
	Stats    *AssignmentStats
}

// Row projects a record onto the result's header order.
func (r *RunResult) Row(rec Record) []string {
	row := make([]string, len(r.Headers))
	for i, h := range r.Headers {
		row[i] = rec.Fields[h]
	}
	return row
}

// Rows projects all records onto the header order.
func (r *RunResult) Rows() [][]string {
	rows := make([][]string, len(r.Records))
	for i, rec := range r.Records {
		rows[i] = r.Row(rec)
	}
	return rows
}

// DedupeHeaders makes headers unique by suffixing repeats with _2, _3, ...
// in first-seen order. The rename is applied consistently wherever headers
// are referenced (column specs, required column, filter fields).
func DedupeHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		seen[h]++
		if seen[h] == 1 {
			out[i] = h
			continue
		}
		// Walk forward past headers that already exist verbatim.
		for {
			candidate := h + "_" + itoa(seen[h])
			if _, taken := seen[candidate]; !taken {
				seen[candidate] = 1
				out[i] = candidate
				break
			}
			seen[h]++
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
