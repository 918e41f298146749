package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		check   func(t *testing.T, tpl *Template)
	}{
		{
			name: "records mode",
			doc: `{
				"version": 1,
				"mode": "records",
				"sheet": "Sheet1",
				"records": {
					"columns": [{"header": "Name", "ranges": ["B2:B10"]}],
					"requiredColumn": "Name"
				}
			}`,
			check: func(t *testing.T, tpl *Template) {
				if tpl.Mode != ModeRecords || tpl.Records == nil {
					t.Fatalf("parsed = %+v", tpl)
				}
				if len(tpl.Records.Columns) != 1 || tpl.Records.Columns[0].Header != "Name" {
					t.Errorf("columns = %+v", tpl.Records.Columns)
				}
			},
		},
		{
			name: "assignments mode",
			doc: `{
				"mode": "assignments",
				"assignments": {
					"objectARange": "A2:A10",
					"objectBRange": "B1:F1",
					"matrixRange": "B2:F10",
					"marks": ["x"]
				}
			}`,
			check: func(t *testing.T, tpl *Template) {
				if tpl.Mode != ModeAssignments || tpl.Assignments == nil {
					t.Fatalf("parsed = %+v", tpl)
				}
			},
		},
		{
			name: "missing version defaults to current",
			doc:  `{"mode": "records", "records": {}}`,
			check: func(t *testing.T, tpl *Template) {
				if tpl.Version != TemplateVersion {
					t.Errorf("Version = %d, want %d", tpl.Version, TemplateVersion)
				}
			},
		},
		{
			name: "unknown fields ignored",
			doc:  `{"mode": "records", "records": {}, "futureField": {"nested": true}}`,
		},
		{
			name: "mode is case-insensitive",
			doc:  `{"mode": " Records ", "records": {}}`,
			check: func(t *testing.T, tpl *Template) {
				if tpl.Mode != ModeRecords {
					t.Errorf("Mode = %q, want canonical %q", tpl.Mode, ModeRecords)
				}
			},
		},
		{
			name:    "newer version rejected",
			doc:     `{"version": 2, "mode": "records", "records": {}}`,
			wantErr: true,
		},
		{
			name:    "unknown mode rejected",
			doc:     `{"mode": "pivot"}`,
			wantErr: true,
		},
		{
			name:    "records mode without config rejected",
			doc:     `{"mode": "records"}`,
			wantErr: true,
		},
		{
			name:    "assignments mode without config rejected",
			doc:     `{"mode": "assignments"}`,
			wantErr: true,
		},
		{
			name:    "malformed json rejected",
			doc:     `{"mode": "records",`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := ParseTemplate([]byte(tt.doc))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTemplate) {
					t.Fatalf("error = %v, want ErrInvalidTemplate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTemplate: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tpl)
			}
		})
	}
}

func TestTemplateEncodeRoundTrip(t *testing.T) {
	tpl := &Template{
		Mode:  ModeRecords,
		Sheet: "Data",
		Records: &RecordsConfig{
			Columns:        []ColumnSpec{{Header: "Name", Ranges: []string{"B2:B10"}}},
			RequiredColumn: "Name",
			Filters: []FilterCondition{
				{Source: SourceOutput, Field: "Name", Operator: OpIsNotEmpty},
			},
		},
	}

	data, err := tpl.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"version": 1`) {
		t.Errorf("encoded document missing version: %s", data)
	}

	back, err := ParseTemplate(data)
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	if back.Sheet != tpl.Sheet || back.Records.RequiredColumn != "Name" {
		t.Errorf("round trip lost fields: %+v", back)
	}
	if len(back.Filters()) != 1 {
		t.Errorf("Filters() = %v, want the records filter", back.Filters())
	}
}
