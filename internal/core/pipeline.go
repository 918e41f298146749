package core

// pipeline.go ties the stages together for one generation run:
// grid -> mapper -> filter evaluator -> result. Deduplication and CSV
// encoding are separate operations the caller invokes on the result.

import "fmt"

// Generate runs the template's mode against the grid and applies its
// filters. The grid is not mutated; the returned result carries every
// warning the stages produced.
func Generate(g Grid, t *Template) (*RunResult, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: no template", ErrInvalidTemplate)
	}

	var (
		res *RunResult
		err error
	)
	switch t.Mode {
	case ModeRecords:
		res, err = BuildRecords(g, *t.Records)
	case ModeAssignments:
		res, err = BuildAssignments(g, *t.Assignments)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidTemplate, t.Mode)
	}
	if err != nil {
		return nil, err
	}

	ApplyFilters(g, res, t.Filters())
	return res, nil
}

// GenerateCSV runs Generate and encodes the surviving records.
func GenerateCSV(g Grid, t *Template) (string, *RunResult, error) {
	res, err := Generate(g, t)
	if err != nil {
		return "", nil, err
	}
	return EncodeCSV(res.Headers, res.Rows()), res, nil
}
