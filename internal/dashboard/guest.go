package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

// Policy decides what a failed per-student fetch does to the rest of the
// fan-out.
type Policy int

const (
	// FailFast cancels the remaining fetches and shows nothing.
	FailFast Policy = iota
	// CollectErrors keeps every student that loaded and reports the
	// failures joined.
	CollectErrors
)

// DefaultFanout bounds concurrent per-student fetches.
const DefaultFanout = 8

// StudentSlips are the CS slips of one beneficiary.
type StudentSlips struct {
	StudentNumber string
	StudentName   string
	Slips         []model.CsSlip
}

func (s StudentSlips) studentName() string { return s.StudentName }

// StudentViolations are the violations of one beneficiary.
type StudentViolations struct {
	StudentNumber string
	StudentName   string
	Violations    []model.Violation
}

func (s StudentViolations) studentName() string { return s.StudentName }

// GuestView is what the guest screens render.
type GuestView struct {
	State      session.State
	Error      string
	Filter     string
	Students   []string
	Slips      []StudentSlips
	Violations []StudentViolations
}

// Guest drives the guest screens, which show the slips and violations of
// every student the guest is registered for.
type Guest struct {
	base
	policy Policy
	fanout int

	vmu        sync.Mutex
	filter     string
	slips      []StudentSlips
	violations []StudentViolations
}

// NewGuest builds the controller. fanout <= 0 means DefaultFanout.
func NewGuest(deps Deps, policy Policy, fanout int) *Guest {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &Guest{base: newBase(deps, "guest"), policy: policy, fanout: fanout, filter: AllStudents}
}

// Activate authorizes the guest, loads the beneficiaries and fans out one
// slip and one violation query per student.
func (g *Guest) Activate(parent context.Context) error {
	ctx, gen, err := g.authorize(parent, session.RoleGuest)
	if err != nil {
		return err
	}
	client := g.backend()

	groups, err := client.GuestBeneficiaries(ctx, g.subject())
	if err != nil {
		return g.fetchFailed(ctx, gen, err, "Failed to fetch beneficiaries")
	}
	var students []model.Student
	for _, grp := range groups {
		students = append(students, grp.Beneficiary...)
	}

	slips, violations, err := g.fetchAll(ctx, client, students)
	if !g.act.current(gen) {
		return ErrInactive
	}
	if err != nil {
		if api.IsUnauthorized(err) || g.policy == FailFast {
			return g.fetchFailed(ctx, gen, err, err.Error())
		}
		g.logger.Warn("some beneficiaries failed to load", "err", err)
		g.setError(err.Error())
	}

	g.vmu.Lock()
	g.slips, g.violations, g.filter = slips, violations, AllStudents
	g.vmu.Unlock()
	if err == nil {
		g.setState(session.StateActive, "")
		return nil
	}
	g.mu.Lock()
	g.state = session.StateActive
	g.mu.Unlock()
	return err
}

type studentResult struct {
	ok         bool
	slips      StudentSlips
	violations StudentViolations
}

func (g *Guest) fetchAll(ctx context.Context, client *api.Client, students []model.Student) ([]StudentSlips, []StudentViolations, error) {
	results := make([]studentResult, len(students))

	var (
		grp  *errgroup.Group
		gctx = ctx
		emu  sync.Mutex
		errs []error
	)
	if g.policy == FailFast {
		grp, gctx = errgroup.WithContext(ctx)
	} else {
		grp = new(errgroup.Group)
	}
	grp.SetLimit(g.fanout)

	for i, st := range students {
		grp.Go(func() error {
			res, err := fetchStudent(gctx, client, st)
			if err != nil {
				if g.policy == FailFast || api.IsUnauthorized(err) {
					return err
				}
				emu.Lock()
				errs = append(errs, err)
				emu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, nil, err
	}

	slips := make([]StudentSlips, 0, len(results))
	violations := make([]StudentViolations, 0, len(results))
	for _, r := range results {
		if !r.ok {
			continue
		}
		slips = append(slips, r.slips)
		violations = append(violations, r.violations)
	}
	return slips, violations, errors.Join(errs...)
}

func fetchStudent(ctx context.Context, client *api.Client, st model.Student) (studentResult, error) {
	if st.StudentNumber == "" {
		return studentResult{}, fmt.Errorf("no studentNumber for student %q", st.FullName())
	}
	slips, err := client.SlipsByStudent(ctx, st.StudentNumber)
	if err != nil {
		return studentResult{}, fmt.Errorf("cs slips for %s: %w", st.StudentNumber, err)
	}
	violations, err := client.ViolationsByStudent(ctx, st.StudentNumber)
	if err != nil {
		return studentResult{}, fmt.Errorf("violations for %s: %w", st.StudentNumber, err)
	}
	name := st.FullName()
	return studentResult{
		ok:         true,
		slips:      StudentSlips{StudentNumber: st.StudentNumber, StudentName: name, Slips: slips},
		violations: StudentViolations{StudentNumber: st.StudentNumber, StudentName: name, Violations: violations},
	}, nil
}

func (g *Guest) Deactivate() {
	g.deactivate()
	g.vmu.Lock()
	g.slips, g.violations, g.filter = nil, nil, AllStudents
	g.vmu.Unlock()
}

// FilterByStudent selects one beneficiary by display name, or AllStudents.
func (g *Guest) FilterByStudent(name string) {
	g.vmu.Lock()
	g.filter = name
	g.vmu.Unlock()
}

// View returns the filtered lists plus every loaded student name for the
// filter picker.
func (g *Guest) View() GuestView {
	g.mu.Lock()
	v := GuestView{State: g.state, Error: g.errMsg}
	g.mu.Unlock()

	g.vmu.Lock()
	defer g.vmu.Unlock()
	v.Filter = g.filter
	for _, s := range g.slips {
		v.Students = append(v.Students, s.StudentName)
	}
	v.Slips = FilterByStudent(g.slips, g.filter)
	v.Violations = FilterByStudent(g.violations, g.filter)
	return v
}
