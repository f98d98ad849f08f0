package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/credstore"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
	"github.com/cstrack/cstrack-client/internal/session/sessiontest"
)

type fakeBackend struct {
	token string
	err   error
	calls int
	reg   model.Registration
	args  []string
}

func (f *fakeBackend) Login(_ context.Context, c model.Credentials) (string, error) {
	f.calls++
	f.args = []string{c.Username, c.Password}
	return f.token, f.err
}

func (f *fakeBackend) Register(_ context.Context, r model.Registration) (string, error) {
	f.calls++
	f.reg = r
	return "", f.err
}

func (f *fakeBackend) VerifyOTP(_ context.Context, username, otp string) (string, error) {
	return f.record(username, otp)
}

func (f *fakeBackend) ForgotPassword(_ context.Context, username string) (string, error) {
	return f.record(username)
}

func (f *fakeBackend) VerifyForgotPassword(_ context.Context, username, otp, password string) (string, error) {
	return f.record(username, otp, password)
}

func (f *fakeBackend) ForgotUsername(_ context.Context, email string) (string, error) {
	return f.record(email)
}

func (f *fakeBackend) VerifyOTPForgotUsername(_ context.Context, otp, username string) (string, error) {
	return f.record(otp, username)
}

func (f *fakeBackend) record(args ...string) (string, error) {
	f.calls++
	f.args = args
	return "", f.err
}

var goodCreds = model.Credentials{Username: "jdoe", Password: "Passw0rd!"}

func TestLoginStoresSession(t *testing.T) {
	token := sessiontest.Token("jdoe", []string{"ROLE_EMPLOYEE"}, time.Now().Add(time.Hour),
		map[string]interface{}{"employeeNumber": "E-7"})
	store := credstore.NewMemoryStore()
	_ = store.Set(context.Background(), credstore.KeyGuestID, "stale")

	svc := New(&fakeBackend{token: token}, store, "", nil)
	role, err := svc.Login(context.Background(), "jdoe", "pw")
	if err != nil || role != session.RoleEmployee {
		t.Fatalf("login = %v, %v", role, err)
	}

	want := map[string]string{
		credstore.KeyToken:          token,
		credstore.KeyRole:           "ROLE_EMPLOYEE",
		credstore.KeyEmployeeNumber: "E-7",
	}
	for k, v := range want {
		got, ok, _ := store.Get(context.Background(), k)
		if !ok || got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
	if _, ok, _ := store.Get(context.Background(), credstore.KeyGuestID); ok {
		t.Fatalf("previous session not cleared")
	}
}

func TestLoginFallsBackToSubject(t *testing.T) {
	token := sessiontest.Token("21-0001", []string{"ROLE_ROLE_STUDENT"}, time.Now().Add(time.Hour), nil)
	store := credstore.NewMemoryStore()
	svc := New(&fakeBackend{token: token}, store, "", nil)

	if role, err := svc.Login(context.Background(), "jdoe", "pw"); err != nil || role != session.RoleStudent {
		t.Fatalf("login = %v, %v", role, err)
	}
	if got, _, _ := store.Get(context.Background(), credstore.KeyStudentNumber); got != "21-0001" {
		t.Fatalf("student number = %q", got)
	}
}

func TestLoginRejectsUnknownRole(t *testing.T) {
	token := sessiontest.Token("x", []string{"ROLE_ADMIN"}, time.Now().Add(time.Hour), nil)
	store := credstore.NewMemoryStore()
	svc := New(&fakeBackend{token: token}, store, "", nil)

	if _, err := svc.Login(context.Background(), "x", "y"); !errors.Is(err, ErrUnauthorizedRole) {
		t.Fatalf("expected ErrUnauthorizedRole, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestLoginServerMessage(t *testing.T) {
	svc := New(&fakeBackend{err: &api.APIError{Status: 401, Message: "Bad credentials"}}, credstore.NewMemoryStore(), "", nil)
	_, err := svc.Login(context.Background(), "x", "y")
	if Message(err) != "Bad credentials" {
		t.Fatalf("message = %q", Message(err))
	}

	svc = New(&fakeBackend{err: api.ErrNoToken}, credstore.NewMemoryStore(), "", nil)
	_, err = svc.Login(context.Background(), "x", "y")
	if Message(err) != "Token not received from server." {
		t.Fatalf("message = %q", Message(err))
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		creds  model.Credentials
		number string
		email  string
		want   error
	}{
		{model.Credentials{Username: "j doe", Password: "Passw0rd!"}, "21-1", "a@b.co", ErrInvalidUsername},
		{model.Credentials{Username: "jdoe"}, "21-1", "a@b.co", ErrMissingPassword},
		{model.Credentials{Username: "jdoe", Password: "Pa0!"}, "21-1", "a@b.co", ErrPasswordTooShort},
		{model.Credentials{Username: "jdoe", Password: "password1!"}, "21-1", "a@b.co", ErrWeakPassword},
		{goodCreds, " ", "a@b.co", ErrMissingMemberNumber},
		{goodCreds, "21-1", "not-an-email", ErrInvalidEmail},
	}
	for _, c := range cases {
		b := &fakeBackend{}
		_, err := New(b, credstore.NewMemoryStore(), "", nil).RegisterStudent(context.Background(), c.creds, c.number, c.email)
		if !errors.Is(err, c.want) {
			t.Fatalf("%+v: got %v, want %v", c, err, c.want)
		}
		if b.calls != 0 {
			t.Fatalf("backend called on invalid input")
		}
	}
}

func TestRegisterEmployeePayload(t *testing.T) {
	b := &fakeBackend{}
	msg, err := New(b, credstore.NewMemoryStore(), "", nil).RegisterEmployee(context.Background(), goodCreds, "E-7", "ana@school.edu")
	if err != nil || msg == "" {
		t.Fatalf("register = %q, %v", msg, err)
	}
	if b.reg.Employee == nil || b.reg.Employee.EmployeeNumber != "E-7" || b.reg.Student != nil || b.reg.User != goodCreds {
		t.Fatalf("unexpected payload %+v", b.reg)
	}
}

func TestRegisterGuest(t *testing.T) {
	b := &fakeBackend{}
	profile := model.GuestProfile{
		FirstName: "Rosa", MiddleName: "M", LastName: "Cruz", Birthdate: "1980-05-01",
		Birthplace: "Manila", Citizenship: "Filipino", Religion: "None", CivilStatus: "Married",
		Sex: "F", Email: "rosa@mail.com", ContactNumber: "09171234567", Address: "Quezon City",
	}
	number, msg, err := New(b, credstore.NewMemoryStore(), "", nil).RegisterGuest(context.Background(), goodCreds, profile)
	if err != nil || msg != MsgGuestRegistered {
		t.Fatalf("register guest = %q, %v", msg, err)
	}
	if !regexp.MustCompile(`^GUEST_[1-9][0-9]{3}$`).MatchString(number) {
		t.Fatalf("guest number %q", number)
	}
	if b.reg.Guest == nil || b.reg.Guest.GuestNumber != number || b.reg.Guest.ContactNumber != "09171234567" {
		t.Fatalf("unexpected payload %+v", b.reg)
	}

	profile.ContactNumber = "12345"
	if _, _, err := New(b, credstore.NewMemoryStore(), "", nil).RegisterGuest(context.Background(), goodCreds, profile); !errors.Is(err, ErrInvalidContact) {
		t.Fatalf("expected ErrInvalidContact, got %v", err)
	}
	profile.ContactNumber = "09171234567"
	profile.Religion = ""
	if _, _, err := New(b, credstore.NewMemoryStore(), "", nil).RegisterGuest(context.Background(), goodCreds, profile); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestRecoveryFlows(t *testing.T) {
	b := &fakeBackend{}
	svc := New(b, credstore.NewMemoryStore(), "", nil)
	ctx := context.Background()

	if msg, err := svc.ResetPassword(ctx, "jdoe", "123456", "N3w!passw"); err != nil || msg != MsgPasswordUpdated {
		t.Fatalf("reset = %q, %v", msg, err)
	}
	if len(b.args) != 3 || b.args[2] != "N3w!passw" {
		t.Fatalf("args = %v", b.args)
	}

	if msg, err := svc.ChangeUsername(ctx, "654321", "newname"); err != nil || msg != MsgUsernameUpdated {
		t.Fatalf("change username = %q, %v", msg, err)
	}
	if b.args[0] != "654321" || b.args[1] != "newname" {
		t.Fatalf("args = %v", b.args)
	}

	b.err = &api.APIError{Status: 400, Message: "Invalid OTP"}
	if _, err := svc.VerifyOTP(ctx, "jdoe", "000000"); Message(err) != "Invalid OTP" {
		t.Fatalf("message = %q", Message(err))
	}
	b.err = errors.New("dial tcp: refused")
	if _, err := svc.VerifyOTP(ctx, "jdoe", "000000"); Message(err) != "An error occurred while verifying OTP." {
		t.Fatalf("message = %q", Message(err))
	}
	if _, err := svc.ForgotUsername(ctx, "bad"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}
