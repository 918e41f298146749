package core

// diff.go computes a duplicate-aware set difference between two CSV
// documents, used to audit what changed between two generation runs. Rows
// are compared as multisets so that a row appearing three times on one
// side and once on the other reports two "only in" entries, not zero.

import (
	"fmt"
	"strings"
)

// DiffResult lists the rows unique to each side of a comparison, projected
// onto the headers the comparison ran over.
type DiffResult struct {
	// Headers are the columns the rows were compared on: the common
	// header set when the two documents disagree, otherwise all.
	Headers []string `json:"headers"`

	OnlyLeft  [][]string `json:"onlyLeft"`
	OnlyRight [][]string `json:"onlyRight"`
}

// CompareCSV decodes both documents and returns their multiset symmetric
// difference. Rows are keyed by the trimmed values of the compared
// headers; output preserves each side's original row order.
func CompareCSV(left, right string) (*DiffResult, error) {
	lRows, err := DecodeCSV(left)
	if err != nil {
		return nil, fmt.Errorf("left document: %w", err)
	}
	rRows, err := DecodeCSV(right)
	if err != nil {
		return nil, fmt.Errorf("right document: %w", err)
	}
	if len(lRows) == 0 || len(rRows) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrBadCSV)
	}

	lHeaders, rHeaders := lRows[0], rRows[0]
	headers := commonHeaders(lHeaders, rHeaders)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: documents share no columns", ErrBadCSV)
	}

	lKeys := projectKeys(headers, lHeaders, lRows[1:])
	rKeys := projectKeys(headers, rHeaders, rRows[1:])

	rCounts := make(map[string]int, len(rKeys))
	for _, k := range rKeys {
		rCounts[k.key]++
	}
	lCounts := make(map[string]int, len(lKeys))
	for _, k := range lKeys {
		lCounts[k.key]++
	}

	res := &DiffResult{Headers: headers}

	// Emit each side's surplus occurrences in original order: the first
	// min(l, r) occurrences of a key are considered matched.
	seen := make(map[string]int, len(lKeys))
	for _, k := range lKeys {
		seen[k.key]++
		if seen[k.key] > rCounts[k.key] {
			res.OnlyLeft = append(res.OnlyLeft, k.row)
		}
	}
	seen = make(map[string]int, len(rKeys))
	for _, k := range rKeys {
		seen[k.key]++
		if seen[k.key] > lCounts[k.key] {
			res.OnlyRight = append(res.OnlyRight, k.row)
		}
	}
	return res, nil
}

type keyedRow struct {
	key string
	row []string
}

// commonHeaders returns the headers both documents share, in left order.
// Identical header sets compare on everything.
func commonHeaders(left, right []string) []string {
	rSet := make(map[string]bool, len(right))
	for _, h := range right {
		rSet[strings.TrimSpace(h)] = true
	}
	var common []string
	for _, h := range left {
		if rSet[strings.TrimSpace(h)] {
			common = append(common, strings.TrimSpace(h))
		}
	}
	return common
}

// projectKeys maps each data row onto the compared headers and builds its
// multiset key.
func projectKeys(headers, docHeaders []string, rows [][]string) []keyedRow {
	pos := make(map[string]int, len(docHeaders))
	for i, h := range docHeaders {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	out := make([]keyedRow, 0, len(rows))
	for _, row := range rows {
		projected := make([]string, len(headers))
		parts := make([]string, len(headers))
		for i, h := range headers {
			if p, ok := pos[h]; ok && p < len(row) {
				projected[i] = row[p]
				parts[i] = strings.TrimSpace(row[p])
			}
		}
		out = append(out, keyedRow{key: strings.Join(parts, dedupeSep), row: projected})
	}
	return out
}
