package ledger

import (
	"strconv"
	"strings"
	"time"
)

// Status of a logged service record.
type Status int

const (
	StatusUnset Status = iota
	StatusComplete
	StatusIncomplete
)

// ParseStatus accepts the picker values ("Complete", "Incomplete") in any
// case. Anything else is StatusUnset.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return StatusComplete
	case "incomplete":
		return StatusIncomplete
	}
	return StatusUnset
}

func (s Status) String() string {
	switch s {
	case StatusComplete:
		return "Complete"
	case StatusIncomplete:
		return "Incomplete"
	}
	return ""
}

// Wire is the lower-case form sent to the backend.
func (s Status) Wire() string { return strings.ToLower(s.String()) }

// SlipSummary is what the employee picked from the slip table.
type SlipSummary struct {
	SlipID           string
	StudentNumber    string
	FullName         string
	Section          string
	ClusterHead      string
	AreaOfService    string
	ReasonForService string
	DateOfService    time.Time
	NatureOfWork     string
	Status           Status
}

// PriorRecord is an already logged report on the same slip.
type PriorRecord struct {
	HoursCompleted float64
}

// Required is the student's total required hours. Known is false when the
// lookup failed.
type Required struct {
	Hours float64
	Known bool
}

// Record is the editable draft for one service entry.
type Record struct {
	SlipSummary
	RequiredHours       float64
	DeductionHours      float64
	PriorCompletedHours float64
	TimeIn              *time.Time
	TimeOut             *time.Time
	Remarks             string
}

// Totals are the derived hours shown under the report table. Remaining is
// not clamped and goes negative once the requirement is exceeded.
type Totals struct {
	Required       float64
	RequiredKnown  bool
	Deduction      float64
	PriorCompleted float64
	TotalCompleted float64
	Remaining      float64
}

// RemainingLabel formats Remaining for display, or "unavailable" when the
// required hours could not be loaded.
func (t Totals) RemainingLabel() string {
	if !t.RequiredKnown {
		return "unavailable"
	}
	return strconv.FormatFloat(t.Remaining, 'f', -1, 64)
}

// ComputeTotals credits deduction hours as completed: total = sum(prior) +
// deduction, remaining = required - total.
func ComputeTotals(prior []PriorRecord, required Required, deduction float64) Totals {
	var done float64
	for _, p := range prior {
		done += p.HoursCompleted
	}
	req := 0.0
	if required.Known {
		req = required.Hours
	}
	total := done + deduction
	return Totals{
		Required:       req,
		RequiredKnown:  required.Known,
		Deduction:      deduction,
		PriorCompleted: done,
		TotalCompleted: total,
		Remaining:      req - total,
	}
}

// HoursCompleted is the whole number of hours between in and out,
// truncated. Non-positive spans yield 0.
func HoursCompleted(in, out time.Time) int {
	d := out.Sub(in)
	if d <= 0 {
		return 0
	}
	return int(d / time.Hour)
}
