package dashboard

import (
	"time"

	"github.com/cstrack/cstrack-client/internal/model"
)

// AllStudents selects every beneficiary in FilterByStudent.
const AllStudents = "all"

// FilterViolations keeps the violations noticed between the start of
// from's day and the end of to's day, both inclusive, in from's location.
// Violations without a notice date are dropped.
func FilterViolations(vs []model.Violation, from, to time.Time) []model.Violation {
	loc := from.Location()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	to = to.In(loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), loc)

	out := make([]model.Violation, 0, len(vs))
	for _, v := range vs {
		d := v.DateOfNotice.Time
		if d.IsZero() || d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, v)
	}
	return out
}

type named interface {
	studentName() string
}

// FilterByStudent keeps the entries of one student by display name, or all
// of them for AllStudents.
func FilterByStudent[T named](items []T, name string) []T {
	if name == AllStudents {
		return append([]T(nil), items...)
	}
	var out []T
	for _, it := range items {
		if it.studentName() == name {
			out = append(out, it)
		}
	}
	return out
}
