// Package sheettest provides an in-memory sheet.Workbook for tests.
package sheettest

import (
	"context"
	"fmt"
	"slices"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheet"
)

const defaultGridRows, defaultGridColumns = 1000, 26

type Validation struct {
	Col, FromRow, ToRow int
	Values              []string
}

type Sheet struct {
	Rows        []model.Row
	Grid        sheet.Dimensions
	Widths      map[int]int
	Validations []Validation
	FormatFrom  string
}

// Workbook records every mutation so tests can assert on it. Setting
// FailLookup, FailCreate or FailWrite makes the corresponding call return an error.
type Workbook struct {
	Sheets     map[string]*Sheet
	Order      []string
	Writes     int
	FailLookup error
	FailCreate error
	FailWrite  error
}

func New() *Workbook {
	return &Workbook{Sheets: make(map[string]*Sheet)}
}

// Add creates a sheet holding rows, header first.
func (w *Workbook) Add(name string, rows ...model.Row) *Sheet {
	s := &Sheet{
		Rows:   rows,
		Grid:   sheet.Dimensions{Rows: defaultGridRows, Columns: defaultGridColumns},
		Widths: make(map[int]int),
	}
	w.Sheets[name] = s
	w.Order = append(w.Order, name)
	return s
}

func (w *Workbook) get(name string) (*Sheet, error) {
	s, ok := w.Sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", sheet.ErrSheetNotFound, name)
	}
	return s, nil
}

func (w *Workbook) HasSheet(_ context.Context, name string) (bool, error) {
	if w.FailLookup != nil {
		return false, w.FailLookup
	}
	_, ok := w.Sheets[name]
	return ok, nil
}

func (w *Workbook) CreateSheet(_ context.Context, name string) error {
	if w.FailCreate != nil {
		return w.FailCreate
	}
	if _, ok := w.Sheets[name]; ok {
		return fmt.Errorf("sheet %q already exists", name)
	}
	w.Add(name)
	return nil
}

func (w *Workbook) Dimensions(_ context.Context, name string) (sheet.Dimensions, error) {
	s, err := w.get(name)
	if err != nil {
		return sheet.Dimensions{}, err
	}
	return s.Grid, nil
}

func (w *Workbook) ReadRows(_ context.Context, name string) ([]model.Row, error) {
	s, err := w.get(name)
	if err != nil {
		return nil, err
	}
	out := make([]model.Row, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = slices.Clone(r)
	}
	return out, nil
}

func (w *Workbook) WriteRows(_ context.Context, name string, startRow int, rows []model.Row) error {
	if w.FailWrite != nil {
		return w.FailWrite
	}
	if len(rows) == 0 {
		return fmt.Errorf("refusing to write an empty block to %q", name)
	}
	s, err := w.get(name)
	if err != nil {
		return err
	}
	w.Writes++
	for i, r := range rows {
		idx := startRow - 1 + i
		for len(s.Rows) <= idx {
			s.Rows = append(s.Rows, model.Row{})
		}
		s.Rows[idx] = slices.Clone(r)
	}
	return nil
}

func (w *Workbook) CopyFormat(_ context.Context, src, dst string, dims sheet.Dimensions) error {
	from, err := w.get(src)
	if err != nil {
		return err
	}
	to, err := w.get(dst)
	if err != nil {
		return err
	}
	to.FormatFrom = src
	to.Grid = dims
	for col, px := range from.Widths {
		to.Widths[col] = px
	}
	return nil
}

func (w *Workbook) SetValidation(_ context.Context, name string, col, fromRow, toRow int, values []string) error {
	s, err := w.get(name)
	if err != nil {
		return err
	}
	s.Validations = append(s.Validations, Validation{Col: col, FromRow: fromRow, ToRow: toRow, Values: values})
	return nil
}

func (w *Workbook) SetColumnWidth(_ context.Context, name string, col, px int) error {
	s, err := w.get(name)
	if err != nil {
		return err
	}
	s.Widths[col] = px
	return nil
}

var _ sheet.Workbook = (*Workbook)(nil)
