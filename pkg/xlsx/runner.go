package xlsx

import (
	"context"
	"log"
	"time"

	"github.com/harrisonrobin/tasksheet/pkg/journal"
	"github.com/harrisonrobin/tasksheet/pkg/rollover"
)

// Runner opens the workbook afresh for every invocation, so edits made between
// invocations are always seen. The file is only saved when the invocation
// succeeds, and every save is recorded in the journal as an automation write.
type Runner struct {
	Path    string
	Journal *journal.Journal
	Log     *log.Logger
	Options rollover.Options
}

// Rollover returns a report only when the new sheet reached the file.
func (r *Runner) Rollover(ctx context.Context, now time.Time) (*rollover.Report, error) {
	var report *rollover.Report
	saved, err := r.with(func(a *rollover.Automation) error {
		var err error
		report, err = a.Rollover(ctx, now)
		return err
	})
	if !saved {
		report = nil
	}
	return report, err
}

func (r *Runner) SortSheet(ctx context.Context, name string) error {
	_, err := r.with(func(a *rollover.Automation) error {
		return a.SortSheet(ctx, name)
	})
	return err
}

func (r *Runner) ApplyDropdowns(ctx context.Context, name string) error {
	_, err := r.with(func(a *rollover.Automation) error {
		return a.ApplyDropdowns(ctx, name)
	})
	return err
}

func (r *Runner) AutoFitColumns(ctx context.Context, name string) error {
	_, err := r.with(func(a *rollover.Automation) error {
		return a.AutoFitColumns(ctx, name)
	})
	return err
}

// SheetNames lists the sheets of the saved file in tab order.
func (r *Runner) SheetNames(_ context.Context) ([]string, error) {
	wb, err := Open(r.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.SheetNames(), nil
}

// ActiveSheet returns the sheet focused in the saved file.
func (r *Runner) ActiveSheet() (string, error) {
	wb, err := Open(r.Path)
	if err != nil {
		return "", err
	}
	defer wb.Close()
	return wb.ActiveSheet(), nil
}

// with runs fn on a freshly opened workbook and reports whether the file was written.
func (r *Runner) with(fn func(a *rollover.Automation) error) (bool, error) {
	wb, err := Open(r.Path)
	if err != nil {
		return false, err
	}
	defer wb.Close()

	if err := fn(rollover.New(wb, r.Log, r.Options)); err != nil {
		return false, err
	}
	saved, err := wb.Save()
	if err != nil || !saved || r.Journal == nil {
		return saved, err
	}
	if err := r.Journal.Record(r.Path); err != nil {
		return true, err
	}
	return true, r.Journal.Save()
}
