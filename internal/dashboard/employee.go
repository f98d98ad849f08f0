package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/ledger"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/queue"
	"github.com/cstrack/cstrack-client/internal/session"
)

// ReportAdded is shown after a successful submission.
const ReportAdded = "Report added successfully."

// ErrNoStation is returned when the employee has no service station, so
// there are no slips to list.
var ErrNoStation = errors.New("employee has no station")

// ReportPublisher announces accepted reports. Publishing is best effort.
type ReportPublisher interface {
	PublishReportSubmitted(ctx context.Context, ev queue.ReportSubmittedEvent) error
}

// EmployeeView is what the employee report screen renders.
type EmployeeView struct {
	State    session.State
	Error    string
	Message  string
	Employee model.Employee
	Slips    []model.CsSlip
	FormOpen bool
	Reports  []model.CsReport
	Record   ledger.Record
	Totals   ledger.Totals
}

// Employee drives the employee report screen: list the station's slips,
// pick one, log hours against it.
type Employee struct {
	base
	ledger    *ledger.Ledger
	publisher ReportPublisher
	now       func() time.Time

	vmu      sync.Mutex
	employee model.Employee
	slips    []model.CsSlip
	reports  []model.CsReport
	formOpen bool
	message  string
}

// NewEmployee builds the controller. publisher may be nil.
func NewEmployee(deps Deps, publisher ReportPublisher) *Employee {
	e := &Employee{base: newBase(deps, "employee"), publisher: publisher, now: time.Now}
	e.ledger = ledger.New(submitter{e}, e.logger)
	return e
}

// submitter routes ledger submissions through the activation's client.
type submitter struct{ e *Employee }

func (s submitter) AddCsReportForSlip(ctx context.Context, slipID string, r model.NewCsReport) error {
	return s.e.backend().AddCsReportForSlip(ctx, slipID, r)
}

// Activate authorizes the employee, loads their record and the slips of
// their station.
func (e *Employee) Activate(parent context.Context) error {
	ctx, gen, err := e.authorize(parent, session.RoleEmployee)
	if err != nil {
		return err
	}

	emp, err := e.backend().Employee(ctx, e.subject())
	if err != nil {
		return e.fetchFailed(ctx, gen, err, "Failed to load employee data.")
	}
	if !e.act.current(gen) {
		return ErrInactive
	}
	// The backend answers some expired sessions with a 200 envelope.
	if emp.HTTPStatusCode == http.StatusForbidden || emp.HTTPStatusCode == http.StatusUnauthorized {
		e.logger.Warn("employee lookup reported expired session", "code", emp.HTTPStatusCode)
		e.logout(ctx)
		return session.ErrTokenExpired
	}

	e.vmu.Lock()
	e.employee = emp
	e.vmu.Unlock()

	if emp.Station == nil || emp.Station.StationName == "" {
		e.setError("No station assigned to this employee.")
		return ErrNoStation
	}

	slips, err := e.backend().SlipsByArea(ctx, emp.Station.StationName)
	if err != nil {
		return e.fetchFailed(ctx, gen, err, "Error fetching CS slips")
	}
	if !e.act.current(gen) {
		return ErrInactive
	}

	e.vmu.Lock()
	e.slips = slips
	e.vmu.Unlock()
	e.setState(session.StateActive, "")
	return nil
}

// Deactivate cancels in-flight fetches and drops the draft.
func (e *Employee) Deactivate() {
	e.deactivate()
	e.ledger.Reset()
	e.vmu.Lock()
	e.slips = nil
	e.reports = nil
	e.formOpen = false
	e.message = ""
	e.vmu.Unlock()
}

// SelectSlip opens the report form for slipID. The required hours are
// optional: when that lookup fails the totals are marked unavailable. A
// failed report lookup opens the form with no prior reports.
func (e *Employee) SelectSlip(parent context.Context, slipID string) error {
	slip, ok := e.findSlip(slipID)
	if !ok {
		return fmt.Errorf("slip %s not listed", slipID)
	}

	ctx, gen, cancel := e.act.scope(parent)
	defer cancel()

	client := e.backend()
	required := ledger.Required{}
	hours, err := client.TotalCsHours(ctx, slip.Student.StudentNumber)
	switch {
	case err == nil:
		required = ledger.Required{Hours: hours, Known: true}
	case errors.Is(err, context.Canceled):
		return ErrInactive
	default:
		e.logger.Warn("total cs hours unavailable", "student", slip.Student.StudentNumber, "err", err)
	}

	cs, err := client.CommServSlip(ctx, slipID)
	if err != nil {
		if ferr := e.fetchFailed(ctx, gen, err, "Failed to load reports."); errors.Is(ferr, ErrInactive) || api.IsUnauthorized(ferr) {
			return ferr
		}
		cs = model.CommServSlip{}
	}
	if !e.act.current(gen) {
		return ErrInactive
	}

	prior := make([]ledger.PriorRecord, 0, len(cs.Reports))
	for _, r := range cs.Reports {
		prior = append(prior, ledger.PriorRecord{HoursCompleted: r.HoursCompleted})
	}
	summary := summaryOf(slip)
	if summary.DateOfService.IsZero() {
		summary.DateOfService = e.now()
	}
	e.ledger.Select(summary, prior, required, slip.Deduction)

	e.vmu.Lock()
	e.reports = cs.Reports
	e.formOpen = true
	e.message = ""
	e.vmu.Unlock()
	return nil
}

func (e *Employee) SetTimeIn(t time.Time)        { e.ledger.SetTimeIn(t) }
func (e *Employee) SetTimeOut(t time.Time) error { return e.ledger.SetTimeOut(t) }
func (e *Employee) SetDateOfService(t time.Time) { e.ledger.SetDateOfService(t) }
func (e *Employee) SetNatureOfWork(s string)     { e.ledger.SetNatureOfWork(s) }
func (e *Employee) SetStatus(s ledger.Status)    { e.ledger.SetStatus(s) }
func (e *Employee) SetRemarks(s string)          { e.ledger.SetRemarks(s) }

// CloseForm discards the draft without submitting.
func (e *Employee) CloseForm() {
	e.ledger.Reset()
	e.vmu.Lock()
	e.formOpen = false
	e.reports = nil
	e.vmu.Unlock()
}

// Submit sends the draft. Validation errors come back unchanged; a failed
// submission keeps the form open with the server's message.
func (e *Employee) Submit(parent context.Context) error {
	ctx, gen, cancel := e.act.scope(parent)
	defer cancel()

	sub, err := e.ledger.Submit(ctx)
	if err != nil {
		var se *ledger.SubmitError
		if errors.As(err, &se) {
			if !e.act.current(gen) {
				return ErrInactive
			}
			if api.IsUnauthorized(se.Err) {
				e.logout(ctx)
				return err
			}
			e.vmu.Lock()
			e.message = se.Message
			e.vmu.Unlock()
		}
		return err
	}

	e.deps.Cache.Invalidate(ctx, e.tokenValue(), "/csSlip/commServSlip/"+sub.SlipID)
	e.vmu.Lock()
	// A slip selected while the report was in flight keeps its form.
	if e.ledger.Record().SlipID == "" {
		e.formOpen = false
		e.reports = nil
	}
	e.message = ReportAdded
	empNo := e.employee.EmployeeNumber
	e.vmu.Unlock()

	if e.publisher != nil {
		ev := queue.NewReportSubmitted(sub.SlipID, sub.StudentNumber, empNo, sub.Report, e.now())
		if err := e.publisher.PublishReportSubmitted(context.WithoutCancel(ctx), ev); err != nil {
			e.logger.Warn("report event not published", "slip", sub.SlipID, "err", err)
		}
	}
	return nil
}

// View returns a snapshot of the screen state.
func (e *Employee) View() EmployeeView {
	e.mu.Lock()
	v := EmployeeView{State: e.state, Error: e.errMsg}
	e.mu.Unlock()

	e.vmu.Lock()
	v.Message = e.message
	v.Employee = e.employee
	v.Slips = append([]model.CsSlip(nil), e.slips...)
	v.FormOpen = e.formOpen
	v.Reports = append([]model.CsReport(nil), e.reports...)
	e.vmu.Unlock()

	v.Record = e.ledger.Record()
	v.Totals = e.ledger.Totals()
	return v
}

func (e *Employee) findSlip(id string) (model.CsSlip, bool) {
	e.vmu.Lock()
	defer e.vmu.Unlock()
	for _, s := range e.slips {
		if strconv.FormatInt(s.ID, 10) == id {
			return s, true
		}
	}
	return model.CsSlip{}, false
}

func (e *Employee) tokenValue() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auth.Token
}

func summaryOf(s model.CsSlip) ledger.SlipSummary {
	return ledger.SlipSummary{
		SlipID:           strconv.FormatInt(s.ID, 10),
		StudentNumber:    s.Student.StudentNumber,
		FullName:         s.Student.FullName(),
		Section:          s.Student.Section.SectionName,
		ClusterHead:      s.Student.Section.ClusterHead,
		AreaOfService:    s.AreaOfCommServ.StationName,
		ReasonForService: s.ReasonOfCs,
		DateOfService:    s.DateOfCs.Time,
		NatureOfWork:     s.NatureOfWork,
		Status:           ledger.ParseStatus(s.Status),
	}
}
