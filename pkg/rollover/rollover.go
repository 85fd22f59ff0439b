// Package rollover performs the daily maintenance of a task workbook: cloning
// yesterday's sheet into today's, carrying unfinished rows forward, restoring
// dropdowns and column widths, and keeping task rows ordered.
package rollover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheet"
	"github.com/harrisonrobin/tasksheet/pkg/tasks"
	"github.com/harrisonrobin/tasksheet/pkg/vocab"
)

var (
	ErrTargetAlreadyExists = errors.New("today's sheet already exists")
	ErrSourceMissing       = errors.New("yesterday's sheet not found")
	ErrCreateFailed        = errors.New("failed to create sheet")
	ErrInvalidSheetHandle  = errors.New("invalid sheet")
	ErrEmptyDataset        = errors.New("no data to sort")
)

const (
	DefaultTitleLayout = "January 2, 2006"

	pxPerChar     = 10
	minColumnPx   = 50
	firstDataRow  = 2
	headerRowSpan = 1
)

type Options struct {
	// TitleLayout is a time layout used to name the daily sheets.
	TitleLayout string
	Location    *time.Location
}

// Automation runs the maintenance operations against a single workbook.
type Automation struct {
	wb   sheet.Workbook
	log  *log.Logger
	opts Options
}

// Report summarizes a completed rollover.
type Report struct {
	Sheet   string
	Source  string
	Carried int
	Dropped int
}

func New(wb sheet.Workbook, logger *log.Logger, opts Options) *Automation {
	if opts.TitleLayout == "" {
		opts.TitleLayout = DefaultTitleLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Automation{wb: wb, log: logger, opts: opts}
}

// Title returns the name of the daily sheet for the day containing t.
func (a *Automation) Title(t time.Time) string {
	return t.In(a.opts.Location).Format(a.opts.TitleLayout)
}

// Rollover creates the sheet for the day of now from the previous day's sheet.
// Nothing is mutated when today's sheet already exists or yesterday's is missing.
// The report is non-nil whenever today's sheet was created, even if a later
// step failed.
func (a *Automation) Rollover(ctx context.Context, now time.Time) (*Report, error) {
	today := now.In(a.opts.Location)
	todayName := a.Title(today)

	exists, err := a.wb.HasSheet(ctx, todayName)
	if err != nil {
		return nil, fmt.Errorf("could not look up sheet %q: %w", todayName, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrTargetAlreadyExists, todayName)
	}

	yesterdayName := a.Title(today.AddDate(0, 0, -1))
	exists, err = a.wb.HasSheet(ctx, yesterdayName)
	if err != nil {
		return nil, fmt.Errorf("could not look up sheet %q: %w", yesterdayName, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, yesterdayName)
	}

	if err := a.wb.CreateSheet(ctx, todayName); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrCreateFailed, todayName, err)
	}
	a.log.Printf("New sheet created: %s", todayName)
	// From here on the workbook has changed, so failures still return the report.
	report := &Report{Sheet: todayName, Source: yesterdayName}

	dims, err := a.wb.Dimensions(ctx, yesterdayName)
	if err != nil {
		return report, fmt.Errorf("could not size sheet %q: %w", yesterdayName, err)
	}
	if err := a.wb.CopyFormat(ctx, yesterdayName, todayName, dims); err != nil {
		return report, fmt.Errorf("could not copy formatting to %q: %w", todayName, err)
	}

	rows, err := a.wb.ReadRows(ctx, yesterdayName)
	if err != nil {
		return report, fmt.Errorf("could not read sheet %q: %w", yesterdayName, err)
	}

	if len(rows) > 0 {
		if err := a.wb.WriteRows(ctx, todayName, 1, rows[:headerRowSpan]); err != nil {
			return report, fmt.Errorf("could not write header to %q: %w", todayName, err)
		}
		data := rows[headerRowSpan:]
		carried := tasks.Carryover(data)
		report.Carried = len(carried)
		report.Dropped = len(data) - len(carried)
		// Writing an empty block is invalid on most hosts.
		if len(carried) > 0 {
			carried = model.Pad(carried, model.Width(carried))
			if err := a.wb.WriteRows(ctx, todayName, firstDataRow, carried); err != nil {
				return report, fmt.Errorf("could not write rows to %q: %w", todayName, err)
			}
		}
	}

	if err := a.ApplyDropdowns(ctx, todayName); err != nil {
		return report, err
	}
	if err := a.AutoFitColumns(ctx, todayName); err != nil {
		return report, err
	}

	a.log.Printf("Sheet %q created successfully (%d carried, %d done).", todayName, report.Carried, report.Dropped)

	if err := a.SortSheet(ctx, todayName); err != nil {
		if !errors.Is(err, ErrEmptyDataset) {
			return report, err
		}
		a.log.Printf("No data to sort in %q.", todayName)
	}
	return report, nil
}

// SortSheet reorders the data rows of the named sheet in place.
func (a *Automation) SortSheet(ctx context.Context, name string) error {
	if name == "" {
		return ErrInvalidSheetHandle
	}
	exists, err := a.wb.HasSheet(ctx, name)
	if err != nil {
		return fmt.Errorf("could not look up sheet %q: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrInvalidSheetHandle, name)
	}

	rows, err := a.wb.ReadRows(ctx, name)
	if err != nil {
		return fmt.Errorf("could not read sheet %q: %w", name, err)
	}
	if len(rows) <= headerRowSpan {
		return fmt.Errorf("%w: %s", ErrEmptyDataset, name)
	}

	data := rows[headerRowSpan:]
	if tasks.IsSorted(data) {
		a.log.Printf("Sheet %q already sorted.", name)
		return nil
	}
	data = model.Pad(data, model.Width(rows))
	tasks.Sort(data)
	if err := a.wb.WriteRows(ctx, name, firstDataRow, data); err != nil {
		return fmt.Errorf("could not write sorted rows to %q: %w", name, err)
	}
	a.log.Printf("Sorting of %q completed successfully.", name)
	return nil
}

// ApplyDropdowns restricts the category, priority and status columns to their
// vocabularies, from the first data row to the bottom of the grid.
func (a *Automation) ApplyDropdowns(ctx context.Context, name string) error {
	dims, err := a.wb.Dimensions(ctx, name)
	if err != nil {
		return fmt.Errorf("could not size sheet %q: %w", name, err)
	}
	if dims.Rows < firstDataRow {
		a.log.Printf("Sheet %q has no data rows, skipping dropdowns.", name)
		return nil
	}

	columns := []struct {
		col    int
		values []string
	}{
		{model.ColCategory + 1, vocab.CategoryValues()},
		{model.ColPriority + 1, vocab.PriorityValues()},
		{model.ColStatus + 1, vocab.StatusValues()},
	}
	for _, c := range columns {
		if err := a.wb.SetValidation(ctx, name, c.col, firstDataRow, dims.Rows, c.values); err != nil {
			return fmt.Errorf("could not set dropdown on column %d of %q: %w", c.col, name, err)
		}
	}
	a.log.Printf("Dropdown menus applied to %q.", name)
	return nil
}

// AutoFitColumns widens each used column to fit its longest value, at roughly
// ten pixels per character and never below fifty pixels.
func (a *Automation) AutoFitColumns(ctx context.Context, name string) error {
	rows, err := a.wb.ReadRows(ctx, name)
	if err != nil {
		return fmt.Errorf("could not read sheet %q: %w", name, err)
	}
	for col := 1; col <= model.Width(rows); col++ {
		width := ColumnWidth(rows, col-1)
		if err := a.wb.SetColumnWidth(ctx, name, col, width); err != nil {
			return fmt.Errorf("could not set width of column %d of %q: %w", col, name, err)
		}
		a.log.Printf("Column %d width adjusted to %dpx.", col, width)
	}
	return nil
}

// ColumnWidth returns the pixel width for column i (zero based) of rows.
func ColumnWidth(rows []model.Row, i int) int {
	longest := 0
	for _, r := range rows {
		if n := utf8.RuneCountInString(r.Field(i)); n > longest {
			longest = n
		}
	}
	return max(longest*pxPerChar, minColumnPx)
}
