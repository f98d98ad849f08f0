package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/credstore"
	"github.com/cstrack/cstrack-client/internal/queue"
	"github.com/cstrack/cstrack-client/internal/session"
	"github.com/cstrack/cstrack-client/internal/session/sessiontest"
)

type countingNav struct{ calls atomic.Int32 }

func (n *countingNav) ToLogin() { n.calls.Add(1) }

type harness struct {
	store *credstore.MemoryStore
	nav   *countingNav
	deps  Deps
	e     *echo.Echo
}

// newHarness stores a live session for role and points the API client at
// an echo server the test registers routes on.
func newHarness(t *testing.T, role session.Role, subject string) *harness {
	t.Helper()
	e := echo.New()
	e.HideBanner = true
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	token := sessiontest.Token("user1", []string{role.Tag()}, time.Now().Add(time.Hour), nil)
	store := credstore.NewMemoryStore()
	if err := credstore.SetAll(context.Background(), store, map[string]string{
		credstore.KeyToken: token,
		credstore.KeyRole:  role.Tag(),
		role.SubjectKey():  subject,
	}); err != nil {
		t.Fatal(err)
	}
	nav := &countingNav{}
	return &harness{
		store: store,
		nav:   nav,
		e:     e,
		deps: Deps{
			Guard: session.NewGuard(store, nav, "", nil),
			API:   api.New(srv.URL, 5*time.Second, nil),
		},
	}
}

func (h *harness) loggedOut(t *testing.T) {
	t.Helper()
	if h.nav.calls.Load() != 1 {
		t.Fatalf("navigated to login %d times, want 1", h.nav.calls.Load())
	}
	if h.store.Len() != 0 {
		t.Fatalf("credential store not cleared")
	}
}

func (h *harness) stillLoggedIn(t *testing.T) {
	t.Helper()
	if h.nav.calls.Load() != 0 || h.store.Len() == 0 {
		t.Fatalf("unexpected logout")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReportSubmittedEvent
}

func (p *recordingPublisher) PublishReportSubmitted(_ context.Context, ev queue.ReportSubmittedEvent) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func slipJSON(id int, studentNumber, first, last string, deduction float64) echo.Map {
	return echo.Map{
		"id":             id,
		"student":        echo.Map{"studentNumber": studentNumber, "firstName": first, "lastName": last, "section": echo.Map{"sectionName": "BSIT-1A", "clusterHead": "Prof. Cruz"}},
		"areaOfCommServ": echo.Map{"stationName": "Library"},
		"reasonOfCs":     "Late enrolment",
		"dateOfCs":       "2025-02-03T00:00:00.000Z",
		"deduction":      deduction,
	}
}

func jsonHandler(v interface{}) echo.HandlerFunc {
	return func(c echo.Context) error { return c.JSON(http.StatusOK, v) }
}
