package core

// dedupe.go detects duplicate output rows by composite key. It runs on the
// final, filtered output so the verdict depends only on what the user will
// actually see in the CSV.

import "strings"

// dedupeSep joins key parts. The unit separator cannot occur in normal
// cell text, so composite keys never collide across field boundaries.
const dedupeSep = "\x1f"

// DuplicateReport summarizes the duplicate rows found in an output table.
type DuplicateReport struct {
	// Groups is the number of distinct keys that occur more than once.
	Groups int `json:"groups"`

	// RowCount is the total number of duplicate rows, counting every
	// occurrence of a repeated key, not just the extras.
	RowCount int `json:"rowCount"`

	// Rows are the duplicate rows in their original order.
	Rows [][]string `json:"rows"`
}

// FindDuplicates marks every row whose composite key (the trimmed values
// of all headers) occurs more than once.
func FindDuplicates(headers []string, rows [][]string) DuplicateReport {
	counts := make(map[string]int, len(rows))
	keys := make([]string, len(rows))

	for i, row := range rows {
		parts := make([]string, len(headers))
		for j := range headers {
			if j < len(row) {
				parts[j] = strings.TrimSpace(row[j])
			}
		}
		keys[i] = strings.Join(parts, dedupeSep)
		counts[keys[i]]++
	}

	var report DuplicateReport
	counted := make(map[string]bool)
	for i, row := range rows {
		if counts[keys[i]] < 2 {
			continue
		}
		report.RowCount++
		report.Rows = append(report.Rows, row)
		if !counted[keys[i]] {
			counted[keys[i]] = true
			report.Groups++
		}
	}
	return report
}
