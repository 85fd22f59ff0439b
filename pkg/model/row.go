package model

import (
	"fmt"
	"strconv"
)

// Column positions of the controlled-vocabulary fields, zero based.
const (
	ColCategory    = 0
	ColDescription = 1
	ColPriority    = 2
	ColStatus      = 3
)

// Row is one line of a task sheet: category, description, priority, status and
// whatever extra columns the sheet carries. Cells hold values as the host
// stores them (string, float64, bool), so rows written back keep their types.
type Row []interface{}

// Field returns the text of column i, or "" if the row is too short.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r) {
		return ""
	}
	return Text(r[i])
}

// Text renders a cell value for comparison and measuring.
func Text(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

func (r Row) Category() string    { return r.Field(ColCategory) }
func (r Row) Description() string { return r.Field(ColDescription) }
func (r Row) Priority() string    { return r.Field(ColPriority) }
func (r Row) Status() string      { return r.Field(ColStatus) }

// Width returns the length of the longest row.
func Width(rows []Row) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Pad right-pads every row with empty cells up to width, so that writing the
// block back overwrites stale trailing cells. Rows are padded in place when
// they have spare capacity.
func Pad(rows []Row, width int) []Row {
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r
	}
	return rows
}
