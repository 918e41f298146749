package core

// filter.go evaluates the per-run filter conditions against a candidate
// record. A condition's left-hand side is either a derived output field or
// a raw sheet range resolved through auto alignment, so one condition can
// yield zero, one, or many left values.
//
// Quantifier semantics:
//
//   - positive operators (equals, less/greater, contains, is-empty,
//     is-not-empty) pass when ANY resolved value satisfies them
//   - negated operators (not-equals, not-contains) pass when EVERY
//     resolved value satisfies them
//   - zero resolved values pass only the negated operators (vacuous truth:
//     nothing to contradict)
//
// Ordering comparisons try numeric first (thousands separators and
// currency symbols stripped, accounting negatives honored), then dates,
// then fall back to lexicographic. An empty side makes the comparison
// indeterminate and the condition fails.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FilterSource selects where a condition reads its left-hand value from.
type FilterSource string

const (
	SourceOutput FilterSource = "output"
	SourceSheet  FilterSource = "sheet"
)

// FilterOperator is a comparison operator for filter conditions.
type FilterOperator string

const (
	OpEquals      FilterOperator = "eq"
	OpNotEquals   FilterOperator = "neq"
	OpLess        FilterOperator = "lt"
	OpGreater     FilterOperator = "gt"
	OpContains    FilterOperator = "contains"
	OpNotContains FilterOperator = "notContains"
	OpIsEmpty     FilterOperator = "empty"
	OpIsNotEmpty  FilterOperator = "notEmpty"
)

// FilterCondition compares an output field or a sheet range against a user
// value. Conditions are consumed at generation time only and never appear
// in the output.
type FilterCondition struct {
	Source   FilterSource   `json:"source"`
	Field    string         `json:"field,omitempty"`
	Range    string         `json:"range,omitempty"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value,omitempty"`
}

func (op FilterOperator) negated() bool {
	return op == OpNotEquals || op == OpNotContains
}

// ApplyFilters keeps the records passing every condition (logical AND).
// Conditions with an invalid sheet range are skipped with a warning, once
// per condition, so one typo does not empty the whole output.
func ApplyFilters(g Grid, res *RunResult, conds []FilterCondition) {
	if len(conds) == 0 {
		return
	}

	type compiled struct {
		cond FilterCondition
		rng  Range
	}
	active := make([]compiled, 0, len(conds))
	for _, c := range conds {
		cc := compiled{cond: c}
		if c.Source == SourceSheet {
			rng, err := ParseRange(c.Range)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("filter: skipping invalid range %q", c.Range))
				continue
			}
			cc.rng = rng.Normalize(g)
		}
		active = append(active, cc)
	}

	kept := res.Records[:0:0]
	for _, rec := range res.Records {
		pass := true
		for _, cc := range active {
			var left []string
			if cc.cond.Source == SourceSheet {
				left = AlignValues(g, rec.Origin, cc.rng)
			} else if v, ok := rec.Fields[cc.cond.Field]; ok {
				left = []string{v}
			}
			if !evalCondition(left, cc.cond.Operator, cc.cond.Value) {
				pass = false
				break
			}
		}
		if pass {
			kept = append(kept, rec)
		}
	}
	res.Records = kept
}

// evalCondition applies the operator's quantifier over the resolved left
// values.
func evalCondition(left []string, op FilterOperator, value string) bool {
	if len(left) == 0 {
		return op.negated()
	}

	if op.negated() {
		for _, lv := range left {
			if !compareOne(lv, op, value) {
				return false
			}
		}
		return true
	}

	for _, lv := range left {
		if compareOne(lv, op, value) {
			return true
		}
	}
	return false
}

// compareOne evaluates a single left value against the operator.
func compareOne(left string, op FilterOperator, value string) bool {
	switch op {
	case OpIsEmpty:
		return isBlank(left)
	case OpIsNotEmpty:
		return !isBlank(left)
	case OpEquals:
		return strings.TrimSpace(left) == strings.TrimSpace(value)
	case OpNotEquals:
		return strings.TrimSpace(left) != strings.TrimSpace(value)
	case OpContains:
		return strings.Contains(strings.ToLower(left), strings.ToLower(value))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(left), strings.ToLower(value))
	case OpLess:
		cmp, ok := compareOrder(left, value)
		return ok && cmp < 0
	case OpGreater:
		cmp, ok := compareOrder(left, value)
		return ok && cmp > 0
	default:
		return false
	}
}

// compareOrder orders two cell values: numerically when both parse as
// numbers, chronologically when both parse as dates, lexicographically
// otherwise. An empty side is indeterminate.
func compareOrder(a, b string) (int, bool) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, false
	}

	if fa, oka := parseNumber(a); oka {
		if fb, okb := parseNumber(b); okb {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
	}

	if ta, oka := parseDate(a); oka {
		if tb, okb := parseDate(b); okb {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			}
			return 0, true
		}
	}

	return strings.Compare(a, b), true
}

// numberRegex validates a cleaned-up numeric string: integers, decimals,
// scientific notation.
var numberRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// dateLayouts are the formats cell values are tried against, unambiguous
// 4-digit-year layouts only.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// parseNumber parses a cell value as a float, tolerating thousands
// separators, common currency symbols, and accounting-style negatives.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numberRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseDate parses a cell value as a calendar date.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
