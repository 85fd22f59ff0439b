// Package trigger decides when the automation runs. Every invocation runs to
// completion before the next one starts, and failures are logged, never returned.
package trigger

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/harrisonrobin/tasksheet/pkg/rollover"
)

// DefaultMarker is the substring a sheet name must contain for manual edits to re-sort it.
const DefaultMarker = "Tasks"

// Origin tells whether an edit was made by a person or by the automation itself.
type Origin int

const (
	Human Origin = iota
	Automation
)

func (o Origin) String() string {
	if o == Automation {
		return "automation"
	}
	return "human"
}

// ParseOrigin accepts "human" or "automation".
func ParseOrigin(s string) (Origin, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human", "manual", "user":
		return Human, true
	case "automation", "script":
		return Automation, true
	}
	return Human, false
}

type EditEvent struct {
	Sheet  string
	Origin Origin
}

// Runner is the part of rollover.Automation the dispatcher drives.
type Runner interface {
	Rollover(ctx context.Context, now time.Time) (*rollover.Report, error)
	SortSheet(ctx context.Context, name string) error
}

type Dispatcher struct {
	mu     sync.Mutex
	runner Runner
	log    *log.Logger
	marker string
}

func NewDispatcher(runner Runner, logger *log.Logger, marker string) *Dispatcher {
	if marker == "" {
		marker = DefaultMarker
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{runner: runner, log: logger, marker: marker}
}

// Daily runs the rollover for the day of now. It reports whether the workbook changed.
func (d *Dispatcher) Daily(ctx context.Context, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	report, err := d.runner.Rollover(ctx, now)
	if err != nil {
		d.log.Printf("Rollover aborted: %v", err)
		// A report means today's sheet was created before the failure.
		return report != nil
	}
	d.log.Printf("Rollover into %q done: %d rows carried from %q, %d finished rows dropped.",
		report.Sheet, report.Carried, report.Source, report.Dropped)
	return true
}

// IsTaskSheet reports whether manual edits to the named sheet trigger a sort.
func (d *Dispatcher) IsTaskSheet(name string) bool {
	return strings.Contains(name, d.marker)
}

// Edit re-sorts the edited sheet when a person changed a task sheet.
// It reports whether the workbook changed.
func (d *Dispatcher) Edit(ctx context.Context, ev EditEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev.Sheet == "" {
		d.log.Printf("Error: edit event without a sheet, skipping.")
		return false
	}
	if !d.IsTaskSheet(ev.Sheet) {
		d.log.Printf("Edit occurred on a non-task sheet %q. Skipping.", ev.Sheet)
		return false
	}
	if ev.Origin == Automation {
		d.log.Printf("Script-initiated edit detected on %q. Ignoring.", ev.Sheet)
		return false
	}

	d.log.Printf("Manual edit detected in sheet: %s", ev.Sheet)
	if err := d.runner.SortSheet(ctx, ev.Sheet); err != nil {
		if errors.Is(err, rollover.ErrEmptyDataset) {
			d.log.Printf("No data to sort in %q. Exiting.", ev.Sheet)
		} else {
			d.log.Printf("Sort of %q failed: %v", ev.Sheet, err)
		}
		return false
	}
	return true
}
