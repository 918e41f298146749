package core

import "testing"

func TestAlignValues(t *testing.T) {
	//      A    B    C    D
	// 1    a1   b1   c1   d1
	// 2    a2   b2   c2   d2
	// 3    a3   b3   c3   d3
	g := Grid{
		{"a1", "b1", "c1", "d1"},
		{"a2", "b2", "c2", "d2"},
		{"a3", "b3", "c3", "d3"},
	}

	tests := []struct {
		name   string
		origin CellRef
		rng    string
		want   []string
	}{
		{
			name:   "single cell exact match",
			origin: CellRef{Row: 1, Col: 1},
			rng:    "B2",
			want:   []string{"b2"},
		},
		{
			name:   "single cell mismatch resolves nothing",
			origin: CellRef{Row: 0, Col: 0},
			rng:    "B2",
			want:   nil,
		},
		{
			name:   "origin inside block returns that cell",
			origin: CellRef{Row: 1, Col: 2},
			rng:    "B1:D3",
			want:   []string{"c2"},
		},
		{
			name:   "single column aligned by row",
			origin: CellRef{Row: 2, Col: 0},
			rng:    "D1:D3",
			want:   []string{"d3"},
		},
		{
			name:   "single row aligned by column",
			origin: CellRef{Row: 0, Col: 1},
			rng:    "A3:D3",
			want:   []string{"b3"},
		},
		{
			name:   "block row slice when only the row aligns",
			origin: CellRef{Row: 1, Col: 9},
			rng:    "B1:C3",
			want:   []string{"b2", "c2"},
		},
		{
			name:   "block column slice when only the column aligns",
			origin: CellRef{Row: 9, Col: 2},
			rng:    "B1:C2",
			want:   []string{"c1", "c2"},
		},
		{
			name:   "no alignment flattens the whole range",
			origin: CellRef{Row: 9, Col: 9},
			rng:    "A1:B2",
			want:   []string{"a1", "b1", "a2", "b2"},
		},
		{
			name:   "row-keyed record origin uses axis match",
			origin: CellRef{Row: 1, Col: -1},
			rng:    "C1:C3",
			want:   []string{"c2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseRange(tt.rng)
			if err != nil {
				t.Fatalf("ParseRange(%q): %v", tt.rng, err)
			}
			got := AlignValues(g, tt.origin, rng.Normalize(g))
			if len(got) != len(tt.want) {
				t.Fatalf("AlignValues = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("AlignValues = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
