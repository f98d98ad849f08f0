package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/ledger"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

func employeeBackend(h *harness, post echo.HandlerFunc) {
	h.e.GET("/employee/employeeNumber/:id", jsonHandler(echo.Map{
		"employeeNumber": "E-7", "firstName": "Ana", "lastName": "Reyes",
		"station": echo.Map{"stationName": "Library"},
	}))
	h.e.GET("/csSlip/areaOfCs/:station", jsonHandler([]echo.Map{slipJSON(42, "21-0001", "Juan", "Cruz", 1)}))
	h.e.GET("/csSlip/totalCsHours/:n", jsonHandler(40))
	h.e.GET("/csSlip/commServSlip/:id", jsonHandler(echo.Map{
		"reports": []echo.Map{{"hoursCompleted": 2}, {"hoursCompleted": 3}},
	}))
	h.e.POST("/csreport/addCsReportForSlip/:id", post)
}

func TestEmployeeReportFlow(t *testing.T) {
	h := newHarness(t, session.RoleEmployee, "E-7")
	var posts atomic.Int32
	var got model.NewCsReport
	employeeBackend(h, func(c echo.Context) error {
		posts.Add(1)
		if err := c.Bind(&got); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
	})

	pub := &recordingPublisher{}
	emp := NewEmployee(h.deps, pub)
	ctx := context.Background()

	if err := emp.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	v := emp.View()
	if v.State != session.StateActive || len(v.Slips) != 1 || v.Employee.EmployeeNumber != "E-7" {
		t.Fatalf("unexpected view %+v", v)
	}

	if err := emp.SelectSlip(ctx, "42"); err != nil {
		t.Fatalf("select: %v", err)
	}
	v = emp.View()
	if !v.FormOpen || v.Totals.TotalCompleted != 6 || v.Totals.Remaining != 34 || !v.Totals.RequiredKnown {
		t.Fatalf("unexpected totals %+v", v.Totals)
	}
	if v.Record.FullName != "Juan Cruz" || v.Record.AreaOfService != "Library" {
		t.Fatalf("slip not copied into record: %+v", v.Record)
	}

	// Status unset: nothing reaches the backend.
	in := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	emp.SetTimeIn(in)
	if err := emp.SetTimeOut(in.Add(2*time.Hour + 45*time.Minute)); err != nil {
		t.Fatalf("time out: %v", err)
	}
	emp.SetNatureOfWork("Shelving")
	if err := emp.Submit(ctx); !errors.Is(err, ledger.ErrIncompleteForm) {
		t.Fatalf("expected ErrIncompleteForm, got %v", err)
	}
	if posts.Load() != 0 {
		t.Fatalf("backend called %d times for an incomplete form", posts.Load())
	}

	emp.SetStatus(ledger.StatusIncomplete)
	if err := emp.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if posts.Load() != 1 || got.HoursCompleted != 2 || got.Status != "incomplete" {
		t.Fatalf("posts=%d body=%+v", posts.Load(), got)
	}
	v = emp.View()
	if v.FormOpen || v.Message != ReportAdded {
		t.Fatalf("form should close with success message, got %+v", v)
	}
	if len(pub.events) != 1 || pub.events[0].SlipID != "42" || pub.events[0].EmployeeNumber != "E-7" || pub.events[0].EventID == "" {
		t.Fatalf("unexpected events %+v", pub.events)
	}
	h.stillLoggedIn(t)
}

func TestEmployeeRequiredHoursUnavailable(t *testing.T) {
	h := newHarness(t, session.RoleEmployee, "E-7")
	h.e.GET("/employee/employeeNumber/:id", jsonHandler(echo.Map{"employeeNumber": "E-7", "station": echo.Map{"stationName": "Gym"}}))
	h.e.GET("/csSlip/areaOfCs/:station", jsonHandler([]echo.Map{slipJSON(5, "21-0002", "Lea", "Santos", 0)}))
	h.e.GET("/csSlip/totalCsHours/:n", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "boom"})
	})
	h.e.GET("/csSlip/commServSlip/:id", jsonHandler(echo.Map{"reports": []echo.Map{{"hoursCompleted": 4}}}))

	emp := NewEmployee(h.deps, nil)
	if err := emp.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := emp.SelectSlip(context.Background(), "5"); err != nil {
		t.Fatalf("select: %v", err)
	}
	totals := emp.View().Totals
	if totals.RequiredKnown || totals.TotalCompleted != 4 || totals.RemainingLabel() != "unavailable" {
		t.Fatalf("unexpected totals %+v", totals)
	}
}

func TestEmployeeExpiredEnvelopeLogsOut(t *testing.T) {
	h := newHarness(t, session.RoleEmployee, "E-7")
	h.e.GET("/employee/employeeNumber/:id", jsonHandler(echo.Map{"httpStatusCode": 403}))

	emp := NewEmployee(h.deps, nil)
	if err := emp.Activate(context.Background()); !errors.Is(err, session.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	h.loggedOut(t)
	if emp.View().State != session.StateLoggedOut {
		t.Fatalf("state = %s", emp.View().State)
	}
}

func TestEmployeeSubmitFailureKeepsForm(t *testing.T) {
	h := newHarness(t, session.RoleEmployee, "E-7")
	employeeBackend(h, func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Slip already completed"})
	})

	emp := NewEmployee(h.deps, nil)
	ctx := context.Background()
	if err := emp.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := emp.SelectSlip(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	in := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	emp.SetTimeIn(in)
	if err := emp.SetTimeOut(in.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	emp.SetNatureOfWork("Shelving")
	emp.SetStatus(ledger.StatusComplete)

	err := emp.Submit(ctx)
	if !errors.Is(err, ledger.ErrNetworkOrServer) {
		t.Fatalf("expected ErrNetworkOrServer, got %v", err)
	}
	v := emp.View()
	if !v.FormOpen || v.Message != "Slip already completed" || v.Record.TimeOut == nil {
		t.Fatalf("form state lost: %+v", v)
	}
}

func TestEmployeeWrongRole(t *testing.T) {
	h := newHarness(t, session.RoleStudent, "21-0001")
	emp := NewEmployee(h.deps, nil)
	if err := emp.Activate(context.Background()); !errors.Is(err, session.ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}
	h.loggedOut(t)
}
