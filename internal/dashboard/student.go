package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

// StudentView is what the student violation and CS slip screens render.
// Each list carries its own error so one failed fetch does not blank the
// other.
type StudentView struct {
	State           session.State
	Error           string
	StudentNumber   string
	Violations      []model.Violation
	Filtered        []model.Violation
	ViolationsError string
	Slips           []model.CsSlip
	SlipsError      string
}

// Student drives the student screens.
type Student struct {
	base

	vmu        sync.Mutex
	violations []model.Violation
	filtered   []model.Violation
	vErr       string
	slips      []model.CsSlip
	sErr       string
}

func NewStudent(deps Deps) *Student {
	return &Student{base: newBase(deps, "student")}
}

// Activate authorizes the student and loads violations and CS slips
// concurrently. A rejected token on either fetch ends the session.
func (s *Student) Activate(parent context.Context) error {
	ctx, gen, err := s.authorize(parent, session.RoleStudent)
	if err != nil {
		return err
	}
	client := s.backend()
	number := s.subject()

	var (
		violations []model.Violation
		slips      []model.CsSlip
		vErr, sErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		violations, vErr = client.ViolationsByStudent(gctx, number)
		if api.IsUnauthorized(vErr) {
			return vErr
		}
		return nil
	})
	g.Go(func() error {
		slips, sErr = client.SlipsByStudent(gctx, number)
		if api.IsUnauthorized(sErr) {
			return sErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.fetchFailed(ctx, gen, err, "")
	}
	if !s.act.current(gen) {
		return ErrInactive
	}

	s.vmu.Lock()
	s.violations, s.filtered, s.vErr = violations, violations, ""
	if vErr != nil {
		s.logger.Error("violations fetch failed", "err", vErr)
		s.vErr = "Unable to fetch violations. Please try again later."
	}
	s.slips, s.sErr = slips, ""
	if sErr != nil {
		s.logger.Error("cs slips fetch failed", "err", sErr)
		s.sErr = api.Message(sErr, "Error fetching CS slips")
	}
	s.vmu.Unlock()

	s.setState(session.StateActive, "")
	if vErr != nil {
		return vErr
	}
	return sErr
}

func (s *Student) Deactivate() {
	s.deactivate()
	s.vmu.Lock()
	s.violations, s.filtered, s.slips = nil, nil, nil
	s.vErr, s.sErr = "", ""
	s.vmu.Unlock()
}

// FilterViolations narrows the displayed violations to a whole-day range.
func (s *Student) FilterViolations(from, to time.Time) []model.Violation {
	s.vmu.Lock()
	defer s.vmu.Unlock()
	s.filtered = FilterViolations(s.violations, from, to)
	return append([]model.Violation(nil), s.filtered...)
}

// ClearFilter shows every violation again.
func (s *Student) ClearFilter() {
	s.vmu.Lock()
	s.filtered = s.violations
	s.vmu.Unlock()
}

func (s *Student) View() StudentView {
	s.mu.Lock()
	v := StudentView{State: s.state, Error: s.errMsg, StudentNumber: s.auth.SubjectID}
	s.mu.Unlock()

	s.vmu.Lock()
	v.Violations = append([]model.Violation(nil), s.violations...)
	v.Filtered = append([]model.Violation(nil), s.filtered...)
	v.ViolationsError = s.vErr
	v.Slips = append([]model.CsSlip(nil), s.slips...)
	v.SlipsError = s.sErr
	s.vmu.Unlock()
	return v
}
