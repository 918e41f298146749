// Package workbook decodes uploaded spreadsheet files into the plain
// string grids the mapping engine consumes. It understands xlsx workbooks
// (via excelize) and bare CSV files, which load as a single-sheet
// workbook.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gridcsv/internal/core"
)

// ErrUnsupportedFile is returned for file types the loader cannot decode.
var ErrUnsupportedFile = errors.New("unsupported file type")

// ErrSheetNotFound is returned when a requested sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// CSVSheetName is the sheet name a CSV upload is presented under.
const CSVSheetName = "Sheet1"

// Workbook is a fully materialized upload: every sheet decoded into a
// grid up front so later operations never touch the original file.
type Workbook struct {
	// Name is the upload's original file name.
	Name string

	// Sheets lists sheet names in workbook order.
	Sheets []string

	grids map[string]core.Grid
}

// Load decodes an uploaded file. The extension of filename selects the
// decoder: .xlsx (and .xlsm) go through excelize, .csv becomes a
// single-sheet workbook.
func Load(r io.Reader, filename string) (*Workbook, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return loadExcel(r, filename)
	case ".csv":
		return loadCSV(r, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

// Grid returns the named sheet's grid. An empty name selects the first
// sheet.
func (w *Workbook) Grid(sheet string) (core.Grid, error) {
	if sheet == "" {
		if len(w.Sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
		}
		sheet = w.Sheets[0]
	}
	g, ok := w.grids[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	return g, nil
}

func loadExcel(r io.Reader, filename string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	w := &Workbook{Name: filename, grids: make(map[string]core.Grid)}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		g := core.Grid(rows)
		if err := fillMergedRegions(f, sheet, &g); err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		w.Sheets = append(w.Sheets, sheet)
		w.grids[sheet] = g
	}
	return w, nil
}

func loadCSV(r io.Reader, filename string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	rows, err := core.DecodeCSV(string(data))
	if err != nil {
		return nil, err
	}
	return &Workbook{
		Name:   filename,
		Sheets: []string{CSVSheetName},
		grids:  map[string]core.Grid{CSVSheetName: core.Grid(rows)},
	}, nil
}

// fillMergedRegions copies each merged region's anchor value into the
// covered cells. GetRows only reports the anchor, but mappings address
// cells by coordinate and expect the label to be visible across the
// whole region, matching what the spreadsheet displays.
func fillMergedRegions(f *excelize.File, sheet string, g *core.Grid) error {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return fmt.Errorf("read merged cells: %w", err)
	}
	for _, m := range merges {
		c0, r0, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return fmt.Errorf("merged region %s: %w", m.GetStartAxis(), err)
		}
		c1, r1, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return fmt.Errorf("merged region %s: %w", m.GetEndAxis(), err)
		}
		value := m.GetCellValue()
		if strings.TrimSpace(value) == "" {
			continue
		}
		for r := r0 - 1; r <= r1-1; r++ {
			for c := c0 - 1; c <= c1-1; c++ {
				setCell(g, r, c, value)
			}
		}
	}
	return nil
}

// setCell writes a value at (row, col), growing the jagged grid as
// needed. Merged regions can extend past the trailing cells GetRows
// trims.
func setCell(g *core.Grid, row, col int, value string) {
	for len(*g) <= row {
		*g = append(*g, nil)
	}
	for len((*g)[row]) <= col {
		(*g)[row] = append((*g)[row], "")
	}
	(*g)[row][col] = value
}
