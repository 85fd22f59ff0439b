package schedule

import (
	"context"
	"time"
)

// NextAt returns the first hour:minute wall-clock time in loc strictly after now.
func NextAt(now time.Time, hour, minute int, loc *time.Location) time.Time {
	now = now.In(loc)
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, loc)
	if !now.Before(cand) {
		// same wall clock tomorrow, even across a DST change
		cand = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, loc)
	}
	return cand
}

// Run calls f once a day at hour:minute in loc until ctx is canceled.
func Run(ctx context.Context, hour, minute int, loc *time.Location, f func(now time.Time)) {
	next := NextAt(time.Now(), hour, minute, loc)
	t := time.NewTimer(time.Until(next))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			f(now)
			next = NextAt(time.Now(), hour, minute, loc)
			t.Reset(time.Until(next))
		}
	}
}
