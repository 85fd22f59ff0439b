package trigger

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/rollover"
	"github.com/harrisonrobin/tasksheet/pkg/sheet/sheettest"
)

var header = model.Row{"Task Type", "Description", "Priority", "Status"}

func newDispatcher(wb *sheettest.Workbook) (*Dispatcher, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	a := rollover.New(wb, logger, rollover.Options{Location: time.UTC})
	return NewDispatcher(a, logger, ""), &buf
}

func unsortedWorkbook(name string) *sheettest.Workbook {
	wb := sheettest.New()
	wb.Add(name,
		header,
		model.Row{"MEETING", "x", "LOW", "NOT_STARTED"},
		model.Row{"9-5_WORK", "y", "HIGH", "IN_PROGRESS"},
	)
	return wb
}

func TestEditHumanSorts(t *testing.T) {
	wb := unsortedWorkbook("Daily Tasks")
	d, logs := newDispatcher(wb)

	assert.True(t, d.Edit(context.Background(), EditEvent{Sheet: "Daily Tasks", Origin: Human}))
	assert.Equal(t, "y", wb.Sheets["Daily Tasks"].Rows[1].Description())
	assert.Contains(t, logs.String(), "Manual edit detected in sheet: Daily Tasks")
}

func TestEditAutomationIgnored(t *testing.T) {
	wb := unsortedWorkbook("Daily Tasks")
	d, logs := newDispatcher(wb)

	assert.False(t, d.Edit(context.Background(), EditEvent{Sheet: "Daily Tasks", Origin: Automation}))
	assert.Zero(t, wb.Writes)
	assert.Contains(t, logs.String(), "Script-initiated edit")
}

func TestEditNonTaskSheetIgnored(t *testing.T) {
	wb := unsortedWorkbook("October 16, 2026")
	d, logs := newDispatcher(wb)

	assert.False(t, d.Edit(context.Background(), EditEvent{Sheet: "October 16, 2026", Origin: Human}))
	assert.False(t, d.Edit(context.Background(), EditEvent{Origin: Human}))
	assert.Zero(t, wb.Writes)
	assert.Contains(t, logs.String(), "non-task sheet")
}

func TestEditCustomMarker(t *testing.T) {
	wb := unsortedWorkbook("October 16, 2026")
	a := rollover.New(wb, log.New(&bytes.Buffer{}, "", 0), rollover.Options{Location: time.UTC})
	d := NewDispatcher(a, log.New(&bytes.Buffer{}, "", 0), "2026")

	assert.True(t, d.Edit(context.Background(), EditEvent{Sheet: "October 16, 2026", Origin: Human}))
	assert.Equal(t, 1, wb.Writes)
}

func TestEditFailuresAreSwallowed(t *testing.T) {
	wb := sheettest.New()
	wb.Add("Empty Tasks", header)
	d, logs := newDispatcher(wb)

	assert.False(t, d.Edit(context.Background(), EditEvent{Sheet: "Empty Tasks", Origin: Human}))
	assert.False(t, d.Edit(context.Background(), EditEvent{Sheet: "Missing Tasks", Origin: Human}))
	assert.Contains(t, logs.String(), "No data to sort")
	assert.Contains(t, logs.String(), "invalid sheet")
}

func TestDaily(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header, model.Row{"MEETING", "x", "LOW", "NOT_STARTED"})
	d, logs := newDispatcher(wb)
	now := time.Date(2026, time.October, 16, 0, 5, 0, 0, time.UTC)

	assert.True(t, d.Daily(context.Background(), now))
	require.Contains(t, wb.Sheets, "October 16, 2026")

	// the second run of the day is a no-op
	assert.False(t, d.Daily(context.Background(), now.Add(time.Hour)))
	assert.Contains(t, logs.String(), "already exists")
}

func TestDailySourceMissing(t *testing.T) {
	d, logs := newDispatcher(sheettest.New())
	assert.False(t, d.Daily(context.Background(), time.Now()))
	assert.Contains(t, logs.String(), "Rollover aborted")
}

func TestDailyPartialFailure(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header, model.Row{"MEETING", "x", "LOW", "NOT_STARTED"})
	wb.FailWrite = fmt.Errorf("disk full")
	d, _ := newDispatcher(wb)

	assert.True(t, d.Daily(context.Background(), time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)))
	assert.Contains(t, wb.Sheets, "October 16, 2026")
}

func TestDailyLookupFailureChangesNothing(t *testing.T) {
	wb := sheettest.New()
	wb.Add("October 15, 2026", header, model.Row{"MEETING", "x", "LOW", "NOT_STARTED"})
	wb.FailLookup = fmt.Errorf("503 backend error")
	d, logs := newDispatcher(wb)

	assert.False(t, d.Daily(context.Background(), time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)))
	assert.Contains(t, logs.String(), "503 backend error")
	assert.NotContains(t, wb.Sheets, "October 16, 2026")
}

func TestParseOrigin(t *testing.T) {
	o, ok := ParseOrigin("Human")
	assert.True(t, ok)
	assert.Equal(t, Human, o)

	o, ok = ParseOrigin("automation")
	assert.True(t, ok)
	assert.Equal(t, Automation, o)
	assert.Equal(t, "automation", o.String())

	_, ok = ParseOrigin("robot")
	assert.False(t, ok)
}
