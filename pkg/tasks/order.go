// Package tasks decides which rows survive the daily rollover and in what
// order rows are displayed.
package tasks

import (
	"cmp"
	"slices"

	"github.com/harrisonrobin/tasksheet/pkg/model"
	"github.com/harrisonrobin/tasksheet/pkg/vocab"
)

// Carryover returns the rows that are not finished, in their original order.
// A row is finished when its status is exactly DONE.
func Carryover(rows []model.Row) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if r.Status() == string(vocab.StatusDone) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Compare orders rows by category, then priority, then status.
func Compare(a, b model.Row) int {
	if c := cmp.Compare(vocab.CategoryRank(a.Category()), vocab.CategoryRank(b.Category())); c != 0 {
		return c
	}
	if c := cmp.Compare(vocab.PriorityRank(a.Priority()), vocab.PriorityRank(b.Priority())); c != 0 {
		return c
	}
	return cmp.Compare(vocab.StatusRank(a.Status()), vocab.StatusRank(b.Status()))
}

// Sort orders rows in place. Rows that compare equal keep their relative order.
func Sort(rows []model.Row) {
	slices.SortStableFunc(rows, Compare)
}

// IsSorted reports whether Sort would leave rows unchanged.
func IsSorted(rows []model.Row) bool {
	return slices.IsSortedFunc(rows, Compare)
}
