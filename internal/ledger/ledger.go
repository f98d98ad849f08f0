// Package ledger tracks the community-service record an employee is
// logging against a student's slip and derives its hour totals.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cstrack/cstrack-client/internal/model"
)

// MinimumSpan is the shortest time-in to time-out interval accepted.
const MinimumSpan = time.Hour

// Submitter sends a finished report to the backend.
type Submitter interface {
	AddCsReportForSlip(ctx context.Context, slipID string, report model.NewCsReport) error
}

// Submission is what was sent for a successful Submit.
type Submission struct {
	SlipID        string
	StudentNumber string
	Report        model.NewCsReport
}

// Ledger holds one draft Record at a time.
type Ledger struct {
	submitter Submitter
	logger    *slog.Logger

	mu     sync.Mutex
	record Record
	totals Totals
	gen    uint64 // bumped by Select and Reset
}

func New(submitter Submitter, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{submitter: submitter, logger: logger}
}

// Select starts a fresh draft for slip and recomputes the totals from the
// slip's prior records.
func (l *Ledger) Select(slip SlipSummary, prior []PriorRecord, required Required, deduction float64) Totals {
	t := ComputeTotals(prior, required, deduction)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record = Record{
		SlipSummary:         slip,
		RequiredHours:       t.Required,
		DeductionHours:      deduction,
		PriorCompletedHours: t.PriorCompleted,
	}
	l.totals = t
	l.gen++
	return t
}

// SetTimeIn sets the start of the service block and invalidates any time out.
func (l *Ledger) SetTimeIn(t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record.TimeIn = &t
	l.record.TimeOut = nil
}

// SetTimeOut validates t against the current time in. A rejected value
// leaves the previous time out in place.
func (l *Ledger) SetTimeOut(t time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	in := l.record.TimeIn
	switch {
	case in == nil:
		return ErrNoTimeIn
	case !t.After(*in):
		return ErrTimeOutNotAfterTimeIn
	case t.Sub(*in) < MinimumSpan:
		return ErrDurationTooShort
	}
	l.record.TimeOut = &t
	return nil
}

func (l *Ledger) SetDateOfService(d time.Time) {
	l.mu.Lock()
	l.record.DateOfService = d
	l.mu.Unlock()
}

func (l *Ledger) SetNatureOfWork(s string) {
	l.mu.Lock()
	l.record.NatureOfWork = s
	l.mu.Unlock()
}

func (l *Ledger) SetStatus(s Status) {
	l.mu.Lock()
	l.record.Status = s
	l.mu.Unlock()
}

func (l *Ledger) SetRemarks(s string) {
	l.mu.Lock()
	l.record.Remarks = s
	l.mu.Unlock()
}

// Record returns a copy of the draft.
func (l *Ledger) Record() Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.record
	if r.TimeIn != nil {
		in := *r.TimeIn
		r.TimeIn = &in
	}
	if r.TimeOut != nil {
		out := *r.TimeOut
		r.TimeOut = &out
	}
	return r
}

func (l *Ledger) Totals() Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals
}

// Reset discards the draft and its totals.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.reset()
	l.mu.Unlock()
}

func (l *Ledger) reset() {
	l.record = Record{}
	l.totals = Totals{}
	l.gen++
}

// Submit validates the draft, sends it once and clears it on success. On
// failure the draft is kept and the error is a *SubmitError carrying the
// message to show. A slip selected while the report was in flight keeps
// its draft.
func (l *Ledger) Submit(ctx context.Context) (Submission, error) {
	l.mu.Lock()
	r, gen := l.record, l.gen
	l.mu.Unlock()

	if r.SlipID == "" || r.DateOfService.IsZero() || r.TimeIn == nil || r.TimeOut == nil ||
		r.NatureOfWork == "" || r.Status == StatusUnset {
		return Submission{}, ErrIncompleteForm
	}

	report := model.NewCsReport{
		DateOfCs:       r.DateOfService.UTC().Format(model.ISOMillis),
		TimeIn:         r.TimeIn.UTC().Format(model.ISOMillis),
		TimeOut:        r.TimeOut.UTC().Format(model.ISOMillis),
		HoursCompleted: HoursCompleted(*r.TimeIn, *r.TimeOut),
		NatureOfWork:   r.NatureOfWork,
		Status:         r.Status.Wire(),
		Remarks:        r.Remarks,
	}
	if err := l.submitter.AddCsReportForSlip(ctx, r.SlipID, report); err != nil {
		l.logger.Warn("add report failed", "slip", r.SlipID, "err", err)
		return Submission{}, newSubmitError(err)
	}

	l.logger.Info("report added", "slip", r.SlipID, "hours", report.HoursCompleted)
	l.mu.Lock()
	if l.gen == gen {
		l.reset()
	}
	l.mu.Unlock()
	return Submission{SlipID: r.SlipID, StudentNumber: r.StudentNumber, Report: report}, nil
}
