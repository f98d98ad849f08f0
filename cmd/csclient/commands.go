package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cstrack/cstrack-client/internal/account"
	"github.com/cstrack/cstrack-client/internal/credstore"
	"github.com/cstrack/cstrack-client/internal/dashboard"
	"github.com/cstrack/cstrack-client/internal/ledger"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

var errNotSignedIn = errors.New("not signed in; run: csclient login")

var stdin = bufio.NewReader(os.Stdin)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		*user = prompt("Username: ")
	}
	if *pass == "" {
		*pass = prompt("Password: ")
	}

	role, err := a.accounts().Login(ctx, *user, *pass)
	if err != nil {
		return errors.New(account.Message(err))
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", strings.ToLower(role.String()))
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	role, err := a.storedRole(ctx)
	if err != nil {
		return err
	}
	auth, err := a.guard.Authorize(ctx, role)
	if err != nil {
		return errors.New(session.Message(err))
	}
	exp := "never"
	if !auth.ExpiresAt.IsZero() {
		exp = auth.ExpiresAt.Local().Format(time.RFC1123)
	}
	fmt.Fprintf(a.out, "role: %s\nid: %s\nexpires: %s\n", strings.ToLower(role.String()), auth.SubjectID, exp)
	return nil
}

// storedRole reads the cached role tag so the right screen can be opened.
// The guard re-checks it against the token on activation.
func (a *app) storedRole(ctx context.Context) (session.Role, error) {
	tag, ok, err := a.store.Get(ctx, credstore.KeyRole)
	if err != nil {
		return session.RoleUnknown, fmt.Errorf("read session: %w", err)
	}
	role := session.ParseRole(tag)
	if !ok || role == session.RoleUnknown {
		return session.RoleUnknown, errNotSignedIn
	}
	return role, nil
}

func (a *app) violations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("violations", flag.ContinueOnError)
	from := fs.String("from", "", "first day of notice (YYYY-MM-DD)")
	to := fs.String("to", "", "last day of notice (YYYY-MM-DD)")
	name := fs.String("student", dashboard.AllStudents, "beneficiary name (guest only)")
	policy := fs.String("policy", "fail-fast", "guest fetch policy: fail-fast | collect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	role, err := a.storedRole(ctx)
	if err != nil {
		return err
	}
	switch role {
	case session.RoleStudent:
		s := dashboard.NewStudent(a.deps())
		defer s.Deactivate()
		if err := s.Activate(ctx); err != nil {
			return screenError(err, s.View().Error)
		}
		v := s.View()
		if v.ViolationsError != "" {
			return errors.New(v.ViolationsError)
		}
		list := v.Violations
		if *from != "" || *to != "" {
			lo, hi, err := dayRange(*from, *to)
			if err != nil {
				return err
			}
			list = s.FilterViolations(lo, hi)
		}
		a.printViolations("", list)
		return nil

	case session.RoleGuest:
		g, err := a.openGuest(ctx, *policy)
		if err != nil {
			return err
		}
		defer g.Deactivate()
		g.FilterByStudent(*name)
		for _, sv := range g.View().Violations {
			a.printViolations(sv.StudentName, sv.Violations)
		}
		return nil
	}
	return fmt.Errorf("violations are not available to %s accounts", strings.ToLower(role.String()))
}

func (a *app) slips(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("slips", flag.ContinueOnError)
	name := fs.String("student", dashboard.AllStudents, "beneficiary name (guest only)")
	policy := fs.String("policy", "fail-fast", "guest fetch policy: fail-fast | collect")
	if err := fs.Parse(args); err != nil {
		return err
	}

	role, err := a.storedRole(ctx)
	if err != nil {
		return err
	}
	switch role {
	case session.RoleStudent:
		s := dashboard.NewStudent(a.deps())
		defer s.Deactivate()
		if err := s.Activate(ctx); err != nil {
			return screenError(err, s.View().Error)
		}
		v := s.View()
		if v.SlipsError != "" {
			return errors.New(v.SlipsError)
		}
		a.printSlips("", v.Slips)
		return nil

	case session.RoleGuest:
		g, err := a.openGuest(ctx, *policy)
		if err != nil {
			return err
		}
		defer g.Deactivate()
		g.FilterByStudent(*name)
		for _, ss := range g.View().Slips {
			a.printSlips(ss.StudentName, ss.Slips)
		}
		return nil

	case session.RoleEmployee:
		e := dashboard.NewEmployee(a.deps(), nil)
		defer e.Deactivate()
		if err := e.Activate(ctx); err != nil {
			return screenError(err, e.View().Error)
		}
		v := e.View()
		fmt.Fprintf(a.out, "Station: %s\n", v.Employee.Station.StationName)
		a.printSlips("", v.Slips)
		return nil
	}
	return errNotSignedIn
}

func (a *app) openGuest(ctx context.Context, policy string) (*dashboard.Guest, error) {
	p := dashboard.FailFast
	switch policy {
	case "fail-fast":
	case "collect":
		p = dashboard.CollectErrors
	default:
		return nil, fmt.Errorf("unknown policy %q", policy)
	}
	g := dashboard.NewGuest(a.deps(), p, dashboard.DefaultFanout)
	err := g.Activate(ctx)
	v := g.View()
	if err != nil && v.State != session.StateActive {
		g.Deactivate()
		return nil, screenError(err, v.Error)
	}
	// CollectErrors keeps the students that loaded.
	if v.Error != "" {
		fmt.Fprintln(os.Stderr, "Warning:", v.Error)
	}
	return g, nil
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	slip := fs.String("slip", "", "slip id; lists the slip's reports when given alone")
	date := fs.String("date", "", "date of service (YYYY-MM-DD, default: slip date or today)")
	in := fs.String("in", "", "time in (HH:MM)")
	out := fs.String("out", "", "time out (HH:MM)")
	nature := fs.String("nature", "", "nature of work")
	status := fs.String("status", "", "Complete | Incomplete")
	remarks := fs.String("remarks", "", "remarks")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *slip == "" {
		return a.slips(ctx, nil)
	}

	e := dashboard.NewEmployee(a.deps(), a.publisher())
	defer e.Deactivate()
	if err := e.Activate(ctx); err != nil {
		return screenError(err, e.View().Error)
	}
	if err := e.SelectSlip(ctx, *slip); err != nil {
		return screenError(err, e.View().Error)
	}

	v := e.View()
	a.printReports(v)
	if *in == "" && *out == "" {
		return nil
	}

	serviceDay := v.Record.DateOfService
	if *date != "" {
		d, err := time.ParseInLocation(dateLayout, *date, time.Local)
		if err != nil {
			return fmt.Errorf("bad -date: %w", err)
		}
		serviceDay = d
		e.SetDateOfService(d)
	}
	if *in != "" {
		t, err := atClock(serviceDay, *in)
		if err != nil {
			return fmt.Errorf("bad -in: %w", err)
		}
		e.SetTimeIn(t)
	}
	if *out != "" {
		t, err := atClock(serviceDay, *out)
		if err != nil {
			return fmt.Errorf("bad -out: %w", err)
		}
		if err := e.SetTimeOut(t); err != nil {
			return errors.New(timeOutMessage(err))
		}
	}
	if *nature != "" {
		e.SetNatureOfWork(*nature)
	}
	if *status != "" {
		e.SetStatus(ledger.ParseStatus(*status))
	}
	e.SetRemarks(*remarks)

	if err := e.Submit(ctx); err != nil {
		var se *ledger.SubmitError
		switch {
		case errors.As(err, &se):
			return errors.New(se.Message)
		case errors.Is(err, ledger.ErrIncompleteForm):
			return errors.New("All fields are required: -date, -in, -out, -nature and -status.")
		}
		return screenError(err, "")
	}
	fmt.Fprintln(a.out, e.View().Message)
	return nil
}

func (a *app) accountFlow(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", "", "password")
	otp := fs.String("otp", "", "one-time code")
	email := fs.String("email", "", "email address")
	as := fs.String("as", "student", "register as: student | employee | guest")
	number := fs.String("number", "", "student or employee number")
	var g model.GuestProfile
	fs.StringVar(&g.FirstName, "first", "", "guest first name")
	fs.StringVar(&g.MiddleName, "middle", "", "guest middle name")
	fs.StringVar(&g.LastName, "last", "", "guest last name")
	fs.StringVar(&g.Birthdate, "birthdate", "", "guest birthdate (YYYY-MM-DD)")
	fs.StringVar(&g.Birthplace, "birthplace", "", "guest birthplace")
	fs.StringVar(&g.Citizenship, "citizenship", "", "guest citizenship")
	fs.StringVar(&g.Religion, "religion", "", "guest religion")
	fs.StringVar(&g.CivilStatus, "civil-status", "", "guest civil status")
	fs.StringVar(&g.Sex, "sex", "", "guest sex")
	fs.StringVar(&g.ContactNumber, "contact", "", "guest contact number (11 digits)")
	fs.StringVar(&g.Address, "address", "", "guest address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc := a.accounts()
	creds := model.Credentials{Username: *user, Password: *pass}
	var (
		msg string
		err error
	)
	switch cmd {
	case "register":
		switch *as {
		case "student":
			msg, err = svc.RegisterStudent(ctx, creds, *number, *email)
		case "employee":
			msg, err = svc.RegisterEmployee(ctx, creds, *number, *email)
		case "guest":
			g.Email = *email
			var guestNumber string
			guestNumber, msg, err = svc.RegisterGuest(ctx, creds, g)
			if err == nil {
				msg = fmt.Sprintf("%s Guest number: %s", msg, guestNumber)
			}
		default:
			return fmt.Errorf("unknown account type %q", *as)
		}
	case "verify-otp":
		msg, err = svc.VerifyOTP(ctx, *user, *otp)
	case "forgot-password":
		msg, err = svc.ForgotPassword(ctx, *user)
	case "reset-password":
		msg, err = svc.ResetPassword(ctx, *user, *otp, *pass)
	case "forgot-username":
		msg, err = svc.ForgotUsername(ctx, *email)
	case "change-username":
		msg, err = svc.ChangeUsername(ctx, *otp, *user)
	}
	if err != nil {
		return errors.New(account.Message(err))
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// screenError turns a dashboard failure into the text the user sees.
func screenError(err error, shown string) error {
	switch {
	case errors.Is(err, session.ErrSessionMissing), errors.Is(err, session.ErrTokenMalformed),
		errors.Is(err, session.ErrTokenExpired), errors.Is(err, session.ErrRoleMismatch):
		return errors.New(session.Message(err))
	case errors.Is(err, dashboard.ErrNoStation):
		return errors.New("No station is assigned to your account.")
	case shown != "":
		return errors.New(shown)
	}
	return err
}

func timeOutMessage(err error) string {
	switch {
	case errors.Is(err, ledger.ErrNoTimeIn):
		return "Please set the time in first."
	case errors.Is(err, ledger.ErrTimeOutNotAfterTimeIn):
		return "Time out must be after time in."
	case errors.Is(err, ledger.ErrDurationTooShort):
		return "The duration between time in and time out must be at least 1 hour."
	}
	return err.Error()
}

func (a *app) printViolations(student string, vs []model.Violation) {
	if student != "" {
		fmt.Fprintf(a.out, "== %s ==\n", student)
	}
	if len(vs) == 0 {
		fmt.Fprintln(a.out, "No violations.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tOFFENSE\tSANCTION\tSTATUS")
	for _, v := range vs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", day(v.DateOfNotice), v.Offense, v.Sanction, v.Status)
	}
	w.Flush()
}

func (a *app) printSlips(student string, slips []model.CsSlip) {
	if student != "" {
		fmt.Fprintf(a.out, "== %s ==\n", student)
	}
	if len(slips) == 0 {
		fmt.Fprintln(a.out, "No slips.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tAREA\tREASON\tDATE\tSTATUS")
	for _, s := range slips {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Student.FullName(), s.AreaOfCommServ.StationName,
			s.ReasonOfCs, day(s.DateOfCs), s.Status)
	}
	w.Flush()
}

func (a *app) printReports(v dashboard.EmployeeView) {
	r := v.Record
	fmt.Fprintf(a.out, "Slip %s: %s (%s), %s\n", r.SlipID, r.FullName, r.StudentNumber, r.ReasonForService)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tIN\tOUT\tHOURS\tNATURE\tSTATUS\tREMARKS")
	for _, rep := range v.Reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%s\n", day(rep.DateOfCs), clock(rep.TimeIn), clock(rep.TimeOut),
			rep.HoursCompleted, rep.NatureOfWork, rep.Status, rep.Remarks)
	}
	w.Flush()
	t := v.Totals
	fmt.Fprintf(a.out, "Completed: %g (deduction %g)  Remaining: %s\n", t.TotalCompleted, t.Deduction, t.RemainingLabel())
}

func day(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(dateLayout)
}

func clock(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(clockLayout)
}

// dayRange parses inclusive day bounds; an empty bound is open.
func dayRange(from, to string) (time.Time, time.Time, error) {
	lo := time.Date(1, 1, 1, 0, 0, 0, 0, time.Local)
	hi := time.Date(9999, 12, 31, 0, 0, 0, 0, time.Local)
	var err error
	if from != "" {
		if lo, err = time.ParseInLocation(dateLayout, from, time.Local); err != nil {
			return lo, hi, fmt.Errorf("bad -from: %w", err)
		}
	}
	if to != "" {
		if hi, err = time.ParseInLocation(dateLayout, to, time.Local); err != nil {
			return lo, hi, fmt.Errorf("bad -to: %w", err)
		}
	}
	return lo, hi, nil
}

func atClock(day time.Time, hhmm string) (time.Time, error) {
	c, err := time.Parse(clockLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	if day.IsZero() {
		day = time.Now()
	}
	day = day.Local()
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, time.Local), nil
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}
