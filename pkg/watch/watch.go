// Package watch turns changes to a local workbook file into edit events.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrisonrobin/tasksheet/pkg/journal"
	"github.com/harrisonrobin/tasksheet/pkg/trigger"
)

const DefaultSettle = 750 * time.Millisecond

// Handler receives an edit of the workbook at path. A handler that rewrites the
// file must record the new fingerprint in the journal before returning.
type Handler func(ctx context.Context, path string, origin trigger.Origin) error

type Watcher struct {
	path    string
	journal *journal.Journal
	handle  Handler
	log     *log.Logger
	// Settle is how long the file must stay quiet before an event fires.
	Settle time.Duration
}

func New(path string, j *journal.Journal, handle Handler, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Watcher{path: path, journal: j, handle: handle, log: logger, Settle: DefaultSettle}
}

// Run blocks until ctx is canceled or the file system watch fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to start file watcher: %w", err)
	}
	defer fw.Close()

	// Spreadsheet apps save by writing a temp file and renaming it over the
	// original, so the directory is watched rather than the file.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	w.log.Printf("Watching %s for edits", w.path)

	target := filepath.Clean(w.path)
	timer := time.NewTimer(w.Settle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			timer.Reset(w.Settle)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Printf("Watch error: %v", err)
		case <-timer.C:
			w.Changed(ctx)
		}
	}
}

// Changed handles one settled change of the file. Failures are logged.
func (w *Watcher) Changed(ctx context.Context) {
	self, err := w.journal.SelfWritten(w.path)
	if err != nil {
		w.log.Printf("Could not fingerprint %s: %v", w.path, err)
		return
	}
	origin := trigger.Human
	if self {
		origin = trigger.Automation
	}

	if err := w.handle(ctx, w.path, origin); err != nil {
		w.log.Printf("Handling edit of %s failed: %v", w.path, err)
	}
}
