package core

// template.go (de)serializes the persisted mapping configuration: a
// versioned JSON document capturing mode, column/range specs, filters, and
// the selected sheet. Templates replay a mapping against a new workbook,
// so loading is forward-compatible: unknown fields are ignored and missing
// fields take their zero defaults.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TemplateVersion is the current template document version.
const TemplateVersion = 1

// Generation modes.
const (
	ModeRecords     = "records"
	ModeAssignments = "assignments"
)

// ErrInvalidTemplate is returned when a template document cannot be parsed
// or names an unknown mode.
var ErrInvalidTemplate = errors.New("invalid template")

// Template is the persisted mapping configuration. Exactly one of Records
// or Assignments is consulted, selected by Mode.
type Template struct {
	Version     int                `json:"version"`
	Mode        string             `json:"mode"`
	Sheet       string             `json:"sheet,omitempty"`
	Records     *RecordsConfig     `json:"records,omitempty"`
	Assignments *AssignmentsConfig `json:"assignments,omitempty"`
}

// ParseTemplate decodes and validates a template document.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if t.Version == 0 {
		t.Version = TemplateVersion
	}
	if t.Version > TemplateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidTemplate, t.Version)
	}

	switch strings.ToLower(strings.TrimSpace(t.Mode)) {
	case ModeRecords:
		t.Mode = ModeRecords
		if t.Records == nil {
			return nil, fmt.Errorf("%w: records mode without records configuration", ErrInvalidTemplate)
		}
	case ModeAssignments:
		t.Mode = ModeAssignments
		if t.Assignments == nil {
			return nil, fmt.Errorf("%w: assignments mode without assignments configuration", ErrInvalidTemplate)
		}
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidTemplate, t.Mode)
	}
	return &t, nil
}

// Encode renders the template as its canonical JSON document.
func (t *Template) Encode() ([]byte, error) {
	if t.Version == 0 {
		t.Version = TemplateVersion
	}
	return json.MarshalIndent(t, "", "  ")
}

// Filters returns the filter list of the active mode.
func (t *Template) Filters() []FilterCondition {
	switch t.Mode {
	case ModeRecords:
		if t.Records != nil {
			return t.Records.Filters
		}
	case ModeAssignments:
		if t.Assignments != nil {
			return t.Assignments.Filters
		}
	}
	return nil
}
