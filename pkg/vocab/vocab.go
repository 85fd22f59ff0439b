// Package vocab holds the controlled vocabularies of the task sheet columns.
// The position of a value in its vocabulary is its rank; lower ranks sort first.
// Values outside a vocabulary rank after every known value.
package vocab

import "slices"

type Category string

const (
	CategoryWork        Category = "9-5_WORK"
	CategoryPersonal    Category = "PERSONAL_WORK"
	CategoryWorkProject Category = "WORK_PROJECT"
	CategoryMeeting     Category = "MEETING"
)

type Priority string

const (
	PriorityDoItNow Priority = "DO IT NOW!"
	PriorityHigh    Priority = "HIGH"
	PriorityMedium  Priority = "MEDIUM"
	PriorityLow     Priority = "LOW"
	PriorityDone    Priority = "ZZZ_DONE"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusNotStarted Status = "NOT_STARTED"
	StatusBlocked    Status = "BLOCKED"
	StatusDone       Status = "DONE"
	StatusMeeting    Status = "MEETING"
)

// Sort orders.
var (
	Categories = []Category{CategoryWork, CategoryPersonal, CategoryWorkProject, CategoryMeeting}
	Priorities = []Priority{PriorityDoItNow, PriorityHigh, PriorityMedium, PriorityLow, PriorityDone}
	Statuses   = []Status{StatusInProgress, StatusNotStarted, StatusBlocked, StatusDone, StatusMeeting}
)

// statusDropdown is the order statuses are offered in the sheet's dropdown.
// It differs from the sort order: DONE is listed before BLOCKED.
var statusDropdown = []Status{StatusInProgress, StatusNotStarted, StatusDone, StatusBlocked, StatusMeeting}

func (c Category) String() string { return string(c) }
func (p Priority) String() string { return string(p) }
func (s Status) String() string   { return string(s) }

// Rank returns the position of c in Categories, or len(Categories) if unknown.
func (c Category) Rank() int { return rank(Categories, c) }

// Rank returns the position of p in Priorities, or len(Priorities) if unknown.
func (p Priority) Rank() int { return rank(Priorities, p) }

// Rank returns the position of s in Statuses, or len(Statuses) if unknown.
func (s Status) Rank() int { return rank(Statuses, s) }

func ParseCategory(v string) (Category, bool) { return parse(Categories, v) }
func ParsePriority(v string) (Priority, bool) { return parse(Priorities, v) }
func ParseStatus(v string) (Status, bool)     { return parse(Statuses, v) }

// CategoryRank ranks a raw cell value.
func CategoryRank(v string) int { return Category(v).Rank() }

// PriorityRank ranks a raw cell value.
func PriorityRank(v string) int { return Priority(v).Rank() }

// StatusRank ranks a raw cell value.
func StatusRank(v string) int { return Status(v).Rank() }

// Dropdown values per column, in display order.
func CategoryValues() []string { return strs(Categories) }
func PriorityValues() []string { return strs(Priorities) }
func StatusValues() []string   { return strs(statusDropdown) }

func rank[T ~string](order []T, v T) int {
	if i := slices.Index(order, v); i >= 0 {
		return i
	}
	return len(order)
}

func parse[T ~string](order []T, v string) (T, bool) {
	if slices.Contains(order, T(v)) {
		return T(v), true
	}
	var zero T
	return zero, false
}

func strs[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
