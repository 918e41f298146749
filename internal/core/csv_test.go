package core

import "testing"

func TestEncodeCSVQuoting(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    string
	}{
		{
			name:    "plain values",
			headers: []string{"a", "b"},
			rows:    [][]string{{"1", "2"}},
			want:    "a,b\n1,2",
		},
		{
			name:    "comma forces quotes",
			headers: []string{"a"},
			rows:    [][]string{{"x,y"}},
			want:    "a\n\"x,y\"",
		},
		{
			name:    "quote doubled",
			headers: []string{"a"},
			rows:    [][]string{{`say "hi"`}},
			want:    "a\n\"say \"\"hi\"\"\"",
		},
		{
			name:    "newline quoted",
			headers: []string{"a"},
			rows:    [][]string{{"line1\nline2"}},
			want:    "a\n\"line1\nline2\"",
		},
		{
			name:    "header row only",
			headers: []string{"a", "b"},
			rows:    nil,
			want:    "a,b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeCSV(tt.headers, tt.rows); got != tt.want {
				t.Errorf("EncodeCSV = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	headers := []string{"name", "note", "amount"}
	rows := [][]string{
		{"plain", "nothing special", "100"},
		{"commas", "a,b,c", "1,200.50"},
		{"quotes", `she said "go"`, `""`},
		{"newlines", "first\nsecond\nthird", ""},
		{"mixed", "x,\"y\"\nz", "  spaced  "},
	}

	decoded, err := DecodeCSV(EncodeCSV(headers, rows))
	if err != nil {
		t.Fatalf("DecodeCSV: %v", err)
	}

	if len(decoded) != len(rows)+1 {
		t.Fatalf("got %d rows, want %d", len(decoded), len(rows)+1)
	}
	for i, h := range headers {
		if decoded[0][i] != h {
			t.Errorf("header %d = %q, want %q", i, decoded[0][i], h)
		}
	}
	for i, row := range rows {
		for j, v := range row {
			if decoded[i+1][j] != v {
				t.Errorf("cell (%d,%d) = %q, want %q", i, j, decoded[i+1][j], v)
			}
		}
	}
}

func TestDecodeCSV(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    [][]string
		wantErr bool
	}{
		{
			name: "crlf endings",
			text: "a,b\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "trailing newline trimmed",
			text: "a\n1\n",
			want: [][]string{{"a"}, {"1"}},
		},
		{
			name: "quoted newline spans rows",
			text: "a\n\"1\n2\"",
			want: [][]string{{"a"}, {"1\n2"}},
		},
		{
			name: "trailing comma yields empty field",
			text: "a,b\n1,",
			want: [][]string{{"a", "b"}, {"1", ""}},
		},
		{
			name:    "unterminated quote",
			text:    "a\n\"unclosed",
			wantErr: true,
		},
		{
			name: "empty document",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCSV(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCSV: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows (%v), want %d", len(got), got, len(tt.want))
			}
			for i := range tt.want {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("row %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range tt.want[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("cell (%d,%d) = %q, want %q", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}
