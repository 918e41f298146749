package core

// csv.go is the CSV codec for generated output and compare input. Encoding
// follows RFC 4180 quoting with LF row joins; decoding is a small state
// machine rather than encoding/csv so that quoted newlines, embedded
// quotes, and files with uneven row lengths all round-trip exactly the way
// the encoder writes them.

import (
	"errors"
	"strings"
)

// ErrBadCSV is returned when compare input cannot be decoded.
var ErrBadCSV = errors.New("unreadable CSV")

// EncodeCSV serializes a header row plus data rows. A value is quoted when
// it contains a comma, quote, or newline; internal quotes are doubled.
func EncodeCSV(headers []string, rows [][]string) string {
	var b strings.Builder
	writeCSVRow(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeCSVRow(&b, row)
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, row []string) {
	for i, v := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.ContainsAny(v, ",\"\n\r") {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(v, `"`, `""`))
			b.WriteByte('"')
		} else {
			b.WriteString(v)
		}
	}
}

// DecodeCSV parses CSV text into rows of fields. Quoted fields may contain
// commas, newlines, and doubled quotes. CRLF and LF line endings are both
// accepted, and a single trailing blank row (from a trailing newline) is
// trimmed.
func DecodeCSV(text string) ([][]string, error) {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if inQuotes {
			switch ch {
			case '"':
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
				} else {
					inQuotes = false
				}
			default:
				field.WriteRune(ch)
			}
			continue
		}

		switch ch {
		case '"':
			if field.Len() != 0 {
				// A quote inside an unquoted field is literal text.
				field.WriteRune('"')
			} else {
				inQuotes = true
			}
		case ',':
			endField()
		case '\r':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			endRow()
		case '\n':
			endRow()
		default:
			field.WriteRune(ch)
		}
	}
	if inQuotes {
		return nil, ErrBadCSV
	}
	if field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	// A trailing newline produces one blank row; drop it.
	if n := len(rows); n > 0 && len(rows[n-1]) == 1 && rows[n-1][0] == "" {
		rows = rows[:n-1]
	}
	return rows, nil
}
