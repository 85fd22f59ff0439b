// Package sheet defines the spreadsheet capabilities the automation needs.
// Rows and columns are 1-based, as they are in every spreadsheet UI.
package sheet

import (
	"context"
	"errors"

	"github.com/harrisonrobin/tasksheet/pkg/model"
)

var ErrSheetNotFound = errors.New("sheet not found")

// Dimensions is the size of a sheet's grid, not of its used range.
type Dimensions struct {
	Rows    int
	Columns int
}

// Workbook is a spreadsheet document holding named worksheets.
type Workbook interface {
	HasSheet(ctx context.Context, name string) (bool, error)
	CreateSheet(ctx context.Context, name string) error
	Dimensions(ctx context.Context, name string) (Dimensions, error)

	// ReadRows returns the used range of the sheet, header row first.
	ReadRows(ctx context.Context, name string) ([]model.Row, error)
	// WriteRows overwrites the block starting at column A of startRow.
	WriteRows(ctx context.Context, name string, startRow int, rows []model.Row) error

	// CopyFormat copies formatting, not values, of the top-left dims block of src onto dst.
	CopyFormat(ctx context.Context, src, dst string, dims Dimensions) error
	// SetValidation restricts column col, rows fromRow..toRow, to values.
	// Entries outside the list are rejected.
	SetValidation(ctx context.Context, name string, col, fromRow, toRow int, values []string) error
	SetColumnWidth(ctx context.Context, name string, col, px int) error
}
