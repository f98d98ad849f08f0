package dashboard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

func TestStudentActivate(t *testing.T) {
	h := newHarness(t, session.RoleStudent, "21-0001")
	h.e.GET("/violation/studentNumber/:n", jsonHandler([]echo.Map{
		{"offense": "Late", "dateOfNotice": "2025-02-03T08:00:00.000Z"},
		{"offense": "Uniform", "dateOfNotice": "2025-02-10T08:00:00.000Z"},
	}))
	h.e.GET("/csSlip/studentNumber/:n", jsonHandler([]echo.Map{slipJSON(1, "21-0001", "Juan", "Cruz", 0)}))

	st := NewStudent(h.deps)
	if err := st.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	v := st.View()
	if v.State != session.StateActive || v.StudentNumber != "21-0001" || len(v.Violations) != 2 || len(v.Slips) != 1 {
		t.Fatalf("unexpected view %+v", v)
	}

	got := st.FilterViolations(time.Date(2025, 2, 3, 15, 0, 0, 0, time.UTC), time.Date(2025, 2, 9, 1, 0, 0, 0, time.UTC))
	if len(got) != 1 || got[0].Offense != "Late" {
		t.Fatalf("filtered = %+v", got)
	}
	st.ClearFilter()
	if len(st.View().Filtered) != 2 {
		t.Fatalf("clear filter did not restore the list")
	}
	h.stillLoggedIn(t)
}

func TestStudentPartialFailure(t *testing.T) {
	h := newHarness(t, session.RoleStudent, "21-0001")
	h.e.GET("/violation/studentNumber/:n", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "db down"})
	})
	h.e.GET("/csSlip/studentNumber/:n", jsonHandler([]echo.Map{slipJSON(1, "21-0001", "Juan", "Cruz", 0)}))

	st := NewStudent(h.deps)
	if err := st.Activate(context.Background()); err == nil {
		t.Fatalf("expected violations error")
	}
	v := st.View()
	if v.ViolationsError == "" || v.SlipsError != "" || len(v.Slips) != 1 {
		t.Fatalf("unexpected view %+v", v)
	}
	h.stillLoggedIn(t)
}

func TestStudentRejectedTokenLogsOut(t *testing.T) {
	h := newHarness(t, session.RoleStudent, "21-0001")
	h.e.GET("/violation/studentNumber/:n", func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "expired"})
	})
	h.e.GET("/csSlip/studentNumber/:n", jsonHandler([]echo.Map{}))

	st := NewStudent(h.deps)
	if err := st.Activate(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	h.loggedOut(t)
	if st.View().State != session.StateLoggedOut {
		t.Fatalf("state = %s", st.View().State)
	}
}

func TestStudentDeactivateDiscardsResults(t *testing.T) {
	h := newHarness(t, session.RoleStudent, "21-0001")
	started := make(chan struct{}, 2)
	block := func(c echo.Context) error {
		started <- struct{}{}
		<-c.Request().Context().Done()
		return c.NoContent(http.StatusOK)
	}
	h.e.GET("/violation/studentNumber/:n", block)
	h.e.GET("/csSlip/studentNumber/:n", block)

	st := NewStudent(h.deps)
	done := make(chan error, 1)
	go func() { done <- st.Activate(context.Background()) }()

	<-started
	st.Deactivate()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInactive) {
			t.Fatalf("expected ErrInactive, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("activate did not return after deactivate")
	}
	if v := st.View(); len(v.Violations) != 0 || v.State == session.StateActive {
		t.Fatalf("stale results kept: %+v", v)
	}
	h.stillLoggedIn(t)
}

func TestFilterViolationsInclusiveDays(t *testing.T) {
	at := func(s string) model.Violation {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			t.Fatal(err)
		}
		return model.Violation{Offense: s, DateOfNotice: model.Timestamp{Time: ts}}
	}
	vs := []model.Violation{
		at("2025-03-01T00:00:00Z"),
		at("2025-03-03T23:59:59.999Z"),
		at("2025-03-04T00:00:00Z"),
		at("2025-02-28T23:59:59.999Z"),
		{Offense: "undated"},
	}
	from := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

	got := FilterViolations(vs, from, to)
	if len(got) != 2 || got[0].Offense != vs[0].Offense || got[1].Offense != vs[1].Offense {
		t.Fatalf("filtered = %+v", got)
	}
}
