package rollover

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/sheet/sheettest"
)

var (
	header = model.Row{"Task Type", "Description", "Priority", "Status", "Notes"}
	now    = time.Date(2026, time.October, 16, 0, 5, 0, 0, time.UTC)
)

func newAutomation(wb *sheettest.Workbook) (*Automation, *bytes.Buffer) {
	var buf bytes.Buffer
	a := New(wb, log.New(&buf, "", 0), Options{Location: time.UTC})
	return a, &buf
}

func TestTitle(t *testing.T) {
	a, _ := newAutomation(sheettest.New())
	assert.Equal(t, "October 16, 2026", a.Title(now))

	nyc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	a = New(sheettest.New(), nil, Options{Location: nyc})
	assert.Equal(t, "October 15, 2026", a.Title(now))
}

func TestRolloverCarriesUnfinishedRows(t *testing.T) {
	wb := sheettest.New()
	prev := wb.Add("October 15, 2026",
		header,
		model.Row{"MEETING", "standup", "LOW", "NOT_STARTED"},
		model.Row{"9-5_WORK", "ship release", "HIGH", "DONE"},
		model.Row{"9-5_WORK", "review PR", "HIGH", "IN_PROGRESS", "from Tuesday"},
		model.Row{"PERSONAL_WORK", "taxes", "DO IT NOW!", "BLOCKED"},
	)
	prev.Widths[2] = 120

	a, _ := newAutomation(wb)
	report, err := a.Rollover(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, &Report{Sheet: "October 16, 2026", Source: "October 15, 2026", Carried: 3, Dropped: 1}, report)

	today := wb.Sheets["October 16, 2026"]
	require.NotNil(t, today)
	assert.Equal(t, "October 15, 2026", today.FormatFrom)
	assert.Equal(t, []model.Row{
		header,
		{"9-5_WORK", "review PR", "HIGH", "IN_PROGRESS", "from Tuesday"},
		{"PERSONAL_WORK", "taxes", "DO IT NOW!", "BLOCKED", ""},
		{"MEETING", "standup", "LOW", "NOT_STARTED", ""},
	}, today.Rows)

	require.Len(t, today.Validations, 3)
	assert.Equal(t, 1, today.Validations[0].Col)
	assert.Equal(t, 3, today.Validations[1].Col)
	assert.Equal(t, 4, today.Validations[2].Col)
	assert.Equal(t, 2, today.Validations[0].FromRow)
	assert.Equal(t, 1000, today.Validations[0].ToRow)
	assert.Contains(t, today.Validations[2].Values, "DONE")

	assert.Equal(t, map[int]int{1: 130, 2: 110, 3: 100, 4: 110, 5: 120}, today.Widths)

	// yesterday is left untouched
	assert.Len(t, prev.Rows, 5)
}

func TestRolloverNothingCarried(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026",
		header,
		model.Row{"9-5_WORK", "a", "LOW", "DONE"},
		model.Row{"MEETING", "b", "LOW", "DONE"},
	)
	a, logs := newAutomation(wb)

	report, err := a.Rollover(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Carried)
	assert.Equal(t, 2, report.Dropped)
	assert.Equal(t, []model.Row{header}, wb.Sheets["October 16, 2026"].Rows)
	assert.Equal(t, 1, wb.Writes, "only the header is written")
	assert.Contains(t, logs.String(), "No data to sort")
}

func TestRolloverTargetExists(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header)
	wb.Add("October 16, 2026", header, model.Row{"MEETING", "keep me", "LOW", "DONE"})
	a, _ := newAutomation(wb)

	report, err := a.Rollover(context.Background(), now)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrTargetAlreadyExists)
	assert.Zero(t, wb.Writes)
	assert.Len(t, wb.Sheets["October 16, 2026"].Rows, 2)
}

func TestRolloverSourceMissing(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 14, 2026", header)
	a, _ := newAutomation(wb)

	_, err := a.Rollover(context.Background(), now)
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.Len(t, wb.Sheets, 1)
}

func TestRolloverCreateFailed(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header)
	wb.FailCreate = errors.New("quota exceeded")
	a, _ := newAutomation(wb)

	_, err := a.Rollover(context.Background(), now)
	assert.ErrorIs(t, err, ErrCreateFailed)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestRolloverReportsPartialSheet(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header, model.Row{"MEETING", "x", "LOW", "NOT_STARTED"})
	wb.FailWrite = errors.New("disk full")
	a, _ := newAutomation(wb)

	report, err := a.Rollover(context.Background(), now)
	assert.ErrorContains(t, err, "disk full")
	require.NotNil(t, report)
	assert.Equal(t, "October 16, 2026", report.Sheet)
	assert.Contains(t, wb.Sheets, "October 16, 2026")
}

func TestRolloverLookupFailure(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header)
	wb.FailLookup = errors.New("rate limited")
	a, _ := newAutomation(wb)

	report, err := a.Rollover(context.Background(), now)
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "rate limited")
	assert.Len(t, wb.Sheets, 1)
}

func TestSortSheet(t *testing.T) {
	wb := sheettest.New()
	wb.Add("My Tasks",
		header,
		model.Row{"MEETING", "x", "LOW", "NOT_STARTED"},
		model.Row{"9-5_WORK", "y", "HIGH", "IN_PROGRESS", "note"},
	)
	a, _ := newAutomation(wb)

	require.NoError(t, a.SortSheet(context.Background(), "My Tasks"))
	assert.Equal(t, []model.Row{
		header,
		{"9-5_WORK", "y", "HIGH", "IN_PROGRESS", "note"},
		{"MEETING", "x", "LOW", "NOT_STARTED", ""},
	}, wb.Sheets["My Tasks"].Rows)
	assert.Equal(t, 1, wb.Writes)

	// a second pass has nothing to do
	require.NoError(t, a.SortSheet(context.Background(), "My Tasks"))
	assert.Equal(t, 1, wb.Writes)
}

func TestSortSheetErrors(t *testing.T) {
	wb := sheettest.New()
	wb.Add("Empty Tasks", header)
	a, _ := newAutomation(wb)
	ctx := context.Background()

	assert.ErrorIs(t, a.SortSheet(ctx, ""), ErrInvalidSheetHandle)
	assert.ErrorIs(t, a.SortSheet(ctx, "Nope"), ErrInvalidSheetHandle)
	assert.ErrorIs(t, a.SortSheet(ctx, "Empty Tasks"), ErrEmptyDataset)
	assert.Zero(t, wb.Writes)
}

func TestSortSheetWriteFailureLeavesRows(t *testing.T) {
	wb := sheettest.New()
	rows := []model.Row{header, {"MEETING", "x"}, {"9-5_WORK", "y"}}
	wb.Add("Tasks", rows...)
	wb.FailWrite = errors.New("boom")
	a, _ := newAutomation(wb)

	err := a.SortSheet(context.Background(), "Tasks")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, "x", wb.Sheets["Tasks"].Rows[1].Description())
}

func TestApplyDropdownsTinyGrid(t *testing.T) {
	wb := sheettest.New()
	s := wb.Add("Tasks", header)
	s.Grid.Rows = 1
	a, _ := newAutomation(wb)

	require.NoError(t, a.ApplyDropdowns(context.Background(), "Tasks"))
	assert.Empty(t, s.Validations)
}

func TestColumnWidth(t *testing.T) {
	rows := []model.Row{
		{"Task Type", "Description"},
		{"PERSONAL_WORK", "café ☕"},
		{"MEETING"},
	}
	assert.Equal(t, 130, ColumnWidth(rows, 0))
	assert.Equal(t, 110, ColumnWidth(rows, 1))
	assert.Equal(t, 50, ColumnWidth(rows, 4))
}
