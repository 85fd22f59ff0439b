// Package xlsx implements sheet.Workbook on top of a local Excel file.
package xlsx

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheet"
)

const (
	// DefaultGridRows stands in for the grid size of hosted spreadsheets,
	// which xlsx files do not have.
	DefaultGridRows    = 1000
	defaultGridColumns = 26

	// pixels per Excel character width unit, default font
	pxPerWidthUnit = 7.0
)

// Workbook is an xlsx file opened for maintenance. Changes are kept in memory
// until Save.
type Workbook struct {
	f        *excelize.File
	path     string
	gridRows int
	dirty    bool
}

func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path, gridRows: DefaultGridRows}, nil
}

func (w *Workbook) Path() string { return w.path }

// Save writes the workbook back to its file if anything changed.
// It reports whether the file was written.
func (w *Workbook) Save() (bool, error) {
	if !w.dirty {
		return false, nil
	}
	if err := w.f.Save(); err != nil {
		return false, fmt.Errorf("unable to save workbook %s: %w", w.path, err)
	}
	w.dirty = false
	return true, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

// ActiveSheet returns the name of the sheet that was focused when the file was saved.
func (w *Workbook) ActiveSheet() string {
	return w.f.GetSheetName(w.f.GetActiveSheetIndex())
}

// SheetNames lists the sheets in tab order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

func (w *Workbook) HasSheet(_ context.Context, name string) (bool, error) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil {
		return false, err
	}
	return idx != -1, nil
}

func (w *Workbook) mustExist(ctx context.Context, name string) error {
	ok, err := w.HasSheet(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", sheet.ErrSheetNotFound, name)
	}
	return nil
}

func (w *Workbook) CreateSheet(ctx context.Context, name string) error {
	ok, err := w.HasSheet(ctx, name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("sheet %q already exists", name)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.dirty = true
	return nil
}

func (w *Workbook) Dimensions(ctx context.Context, name string) (sheet.Dimensions, error) {
	rows, err := w.ReadRows(ctx, name)
	if err != nil {
		return sheet.Dimensions{}, err
	}
	return sheet.Dimensions{
		Rows:    max(len(rows), w.gridRows),
		Columns: max(model.Width(rows), defaultGridColumns),
	}, nil
}

// ReadRows returns the stored cell values: numbers as float64, booleans as
// bool, everything else as text.
func (w *Workbook) ReadRows(ctx context.Context, name string) ([]model.Row, error) {
	if err := w.mustExist(ctx, name); err != nil {
		return nil, err
	}
	raw, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to read rows of %q: %w", name, err)
	}
	rows := make([]model.Row, len(raw))
	for i, r := range raw {
		row := make(model.Row, len(r))
		for j, v := range r {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := w.f.GetCellType(name, cell)
			if err != nil {
				return nil, fmt.Errorf("unable to read %s!%s: %w", name, cell, err)
			}
			row[j] = cellValue(typ, v)
		}
		rows[i] = row
	}
	return rows, nil
}

func cellValue(typ excelize.CellType, v string) interface{} {
	switch typ {
	case excelize.CellTypeBool:
		return v == "1" || strings.EqualFold(v, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		// numeric cells are often written without a type attribute
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func (w *Workbook) WriteRows(ctx context.Context, name string, startRow int, rows []model.Row) error {
	if len(rows) == 0 {
		return fmt.Errorf("refusing to write an empty block to %q", name)
	}
	if err := w.mustExist(ctx, name); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(r))
		for j, v := range r {
			if v != "" {
				values[j] = v
			}
		}
		if err := w.f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("unable to write row %d of %q: %w", startRow+i, name, err)
		}
		w.dirty = true
	}
	return nil
}

// CopyFormat copies cell styles, column widths and row heights.
func (w *Workbook) CopyFormat(ctx context.Context, src, dst string, dims sheet.Dimensions) error {
	if err := w.mustExist(ctx, src); err != nil {
		return err
	}
	if err := w.mustExist(ctx, dst); err != nil {
		return err
	}

	for c := 1; c <= dims.Columns; c++ {
		col, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		width, err := w.f.GetColWidth(src, col)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(dst, col, col, width); err != nil {
			return err
		}
	}

	// Styles are read from the used range only: probing a cell with
	// GetCellStyle materializes it in the source sheet.
	used, err := w.f.GetRows(src)
	if err != nil {
		return err
	}
	usedRows := min(len(used), dims.Rows)
	usedCols := 0
	for _, r := range used {
		usedCols = max(usedCols, len(r))
	}
	usedCols = min(usedCols, dims.Columns)

	for r := 1; r <= usedRows; r++ {
		height, err := w.f.GetRowHeight(src, r)
		if err != nil {
			return err
		}
		if err := w.f.SetRowHeight(dst, r, height); err != nil {
			return err
		}
		for c := 1; c <= usedCols; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			style, err := w.f.GetCellStyle(src, cell)
			if err != nil {
				return err
			}
			if style == 0 {
				continue
			}
			if err := w.f.SetCellStyle(dst, cell, cell, style); err != nil {
				return err
			}
		}
	}
	w.dirty = true
	return nil
}

// SetValidation replaces any validation on the range with a strict drop-down list.
func (w *Workbook) SetValidation(ctx context.Context, name string, col, fromRow, toRow int, values []string) error {
	if err := w.mustExist(ctx, name); err != nil {
		return err
	}
	colName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	sqref := fmt.Sprintf("%s%d:%s%d", colName, fromRow, colName, toRow)
	if err := w.f.DeleteDataValidation(name, sqref); err != nil {
		return err
	}

	dv := excelize.NewDataValidation(true)
	dv.Sqref = sqref
	if err := dv.SetDropList(values); err != nil {
		return fmt.Errorf("invalid drop-down list for %s: %w", sqref, err)
	}
	dv.SetError(excelize.DataValidationErrorStyleStop, "Invalid value", "Pick a value from the list.")
	if err := w.f.AddDataValidation(name, dv); err != nil {
		return err
	}
	w.dirty = true
	return nil
}

func (w *Workbook) SetColumnWidth(ctx context.Context, name string, col, px int) error {
	if err := w.mustExist(ctx, name); err != nil {
		return err
	}
	colName, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	if err := w.f.SetColWidth(name, colName, colName, float64(px)/pxPerWidthUnit); err != nil {
		return err
	}
	w.dirty = true
	return nil
}

var _ sheet.Workbook = (*Workbook)(nil)
