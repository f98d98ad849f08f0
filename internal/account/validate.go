package account

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/cstrack/cstrack-client/internal/model"
)

// Form validation errors. Message maps them to the text shown.
var (
	ErrInvalidUsername     = errors.New("invalid username")
	ErrMissingPassword     = errors.New("missing password")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrWeakPassword        = errors.New("weak password")
	ErrMissingMemberNumber = errors.New("missing member number")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidContact      = errors.New("invalid contact number")
	ErrMissingField        = errors.New("missing required field")
)

var validationMessages = []struct {
	err error
	msg string
}{
	{ErrInvalidUsername, "Please enter a valid username (alphanumeric characters only)."},
	{ErrMissingPassword, "Please enter a password."},
	{ErrPasswordTooShort, "Password must be at least 8 characters."},
	{ErrWeakPassword, "Your password is weak. Please include a mix of uppercase, lowercase, numbers, and special characters."},
	{ErrMissingMemberNumber, "Please enter your Member Number."},
	{ErrInvalidEmail, "Please enter a valid email address."},
	{ErrInvalidContact, "Incorrect or incomplete contact number"},
	{ErrMissingField, "Please fill in all required fields."},
	{ErrUnauthorizedRole, "Unauthorized role. Please try again."},
}

// Message returns the text to show for an error from this package.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	for _, m := range validationMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "An unexpected error occurred."
}

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	contactRe  = regexp.MustCompile(`^[0-9]{11}$`)
)

const passwordSpecials = "!@#$%^&*"

func validateCredentials(c model.Credentials) error {
	if !usernameRe.MatchString(c.Username) {
		return ErrInvalidUsername
	}
	switch {
	case c.Password == "":
		return ErrMissingPassword
	case len(c.Password) < 8:
		return ErrPasswordTooShort
	case !strongPassword(c.Password):
		return ErrWeakPassword
	}
	return nil
}

// strongPassword needs a lower, an upper, a digit and one of
// passwordSpecials.
func strongPassword(p string) bool {
	var lower, upper, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit && strings.ContainsAny(p, passwordSpecials)
}

func validateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func validateGuest(g model.GuestProfile) error {
	required := []struct{ name, v string }{
		{"firstName", g.FirstName},
		{"middleName", g.MiddleName},
		{"lastName", g.LastName},
		{"birthdate", g.Birthdate},
		{"birthplace", g.Birthplace},
		{"citizenship", g.Citizenship},
		{"religion", g.Religion},
		{"civilStatus", g.CivilStatus},
		{"sex", g.Sex},
		{"address", g.Address},
	}
	for _, f := range required {
		if strings.TrimSpace(f.v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if err := validateEmail(g.Email); err != nil {
		return err
	}
	if !contactRe.MatchString(g.ContactNumber) {
		return ErrInvalidContact
	}
	return nil
}
