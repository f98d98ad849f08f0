// Package account implements the signed-out flows: login, registration,
// OTP verification and password/username recovery.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/cstrack/cstrack-client/internal/api"
	"github.com/cstrack/cstrack-client/internal/credstore"
	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/session"
)

// ErrUnauthorizedRole is returned by Login when the token carries no
// student, employee or guest authority.
var ErrUnauthorizedRole = errors.New("unauthorized role")

// Success messages shown after each flow.
const (
	MsgOTPVerified      = "OTP Verified Successfully!"
	MsgPasswordUpdated  = "Password has been updated successfully!"
	MsgUsernameUpdated  = "Your username has been updated successfully!"
	MsgGuestRegistered  = "Guest has been successfully registered!"
	MsgOTPSent          = "An OTP has been sent. Please check your email."
	MsgRegistrationSent = "Registration received. Please verify the OTP sent to your email."
)

// Backend is the part of the API the account flows call.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Register(ctx context.Context, reg model.Registration) (string, error)
	VerifyOTP(ctx context.Context, username, otp string) (string, error)
	ForgotPassword(ctx context.Context, username string) (string, error)
	VerifyForgotPassword(ctx context.Context, username, otp, password string) (string, error)
	ForgotUsername(ctx context.Context, email string) (string, error)
	VerifyOTPForgotUsername(ctx context.Context, otp, username string) (string, error)
}

// Error is a failed flow. Message is what the user sees: the server's
// message when it sent one, otherwise a per-flow default.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func fail(err error, fallback string) error {
	return &Error{Message: api.Message(err, fallback), Err: err}
}

// Service runs the account flows against the backend and keeps the
// session in the credential store.
type Service struct {
	backend Backend
	store   credstore.Store
	secret  string
	logger  *slog.Logger
}

func New(backend Backend, store credstore.Store, secret string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, store: store, secret: secret, logger: logger}
}

// Login authenticates, derives the role from the token and stores the
// token, role tag and subject id. Any previous session is cleared first.
func (s *Service) Login(ctx context.Context, username, password string) (session.Role, error) {
	token, err := s.backend.Login(ctx, model.Credentials{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, api.ErrNoToken) {
			return session.RoleUnknown, &Error{Message: "Token not received from server.", Err: err}
		}
		return session.RoleUnknown, fail(err, loginFallback(err))
	}

	claims, err := session.DecodeClaims(token, s.secret)
	if err != nil {
		return session.RoleUnknown, &Error{Message: session.Message(err), Err: err}
	}
	role := claims.Role
	if role == session.RoleUnknown {
		return session.RoleUnknown, ErrUnauthorizedRole
	}

	subject := claims.String(role.SubjectKey())
	if subject == "" {
		subject = claims.Subject
	}

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clear previous session failed", "err", err)
	}
	if err := credstore.SetAll(ctx, s.store, map[string]string{
		credstore.KeyToken: token,
		credstore.KeyRole:  role.Tag(),
		role.SubjectKey():  subject,
	}); err != nil {
		return session.RoleUnknown, fmt.Errorf("store session: %w", err)
	}
	s.logger.Info("logged in", "role", role.String(), "subject", subject)
	return role, nil
}

func loginFallback(err error) string {
	var ae *api.APIError
	if errors.As(err, &ae) {
		return "Invalid request. Please check your input."
	}
	return "No response from server. Check network or server status."
}

// RegisterStudent registers a student account. The backend then sends an
// OTP for VerifyOTP.
func (s *Service) RegisterStudent(ctx context.Context, creds model.Credentials, studentNumber, email string) (string, error) {
	if err := validateMember(creds, studentNumber, email); err != nil {
		return "", err
	}
	return s.register(ctx, model.Registration{
		User:    creds,
		Student: &model.StudentProfile{StudentNumber: studentNumber, Email: email},
	}, "An unexpected error occurred.")
}

func (s *Service) RegisterEmployee(ctx context.Context, creds model.Credentials, employeeNumber, email string) (string, error) {
	if err := validateMember(creds, employeeNumber, email); err != nil {
		return "", err
	}
	return s.register(ctx, model.Registration{
		User:     creds,
		Employee: &model.EmployeeProfile{EmployeeNumber: employeeNumber, Email: email},
	}, "An unexpected error occurred.")
}

// RegisterGuest registers a guest under a fresh guest number, returned
// with the message. A guest number already set on profile is kept.
func (s *Service) RegisterGuest(ctx context.Context, creds model.Credentials, profile model.GuestProfile) (string, string, error) {
	if err := validateCredentials(creds); err != nil {
		return "", "", err
	}
	if err := validateGuest(profile); err != nil {
		return "", "", err
	}
	if profile.GuestNumber == "" {
		profile.GuestNumber = NewGuestNumber()
	}
	if _, err := s.register(ctx, model.Registration{User: creds, Guest: &profile}, "An error occurred during registration."); err != nil {
		return "", "", err
	}
	return profile.GuestNumber, MsgGuestRegistered, nil
}

func (s *Service) register(ctx context.Context, reg model.Registration, fallback string) (string, error) {
	msg, err := s.backend.Register(ctx, reg)
	if err != nil {
		return "", fail(err, fallback)
	}
	if msg == "" {
		msg = MsgRegistrationSent
	}
	return msg, nil
}

func validateMember(creds model.Credentials, number, email string) error {
	if err := validateCredentials(creds); err != nil {
		return err
	}
	if strings.TrimSpace(number) == "" {
		return ErrMissingMemberNumber
	}
	return validateEmail(email)
}

// NewGuestNumber returns "GUEST_" followed by four digits.
func NewGuestNumber() string {
	return fmt.Sprintf("GUEST_%d", 1000+rand.IntN(9000))
}

func (s *Service) VerifyOTP(ctx context.Context, username, otp string) (string, error) {
	if username == "" || otp == "" {
		return "", ErrMissingField
	}
	if _, err := s.backend.VerifyOTP(ctx, username, otp); err != nil {
		return "", fail(err, "An error occurred while verifying OTP.")
	}
	return MsgOTPVerified, nil
}

// ForgotPassword asks the backend to email a reset OTP.
func (s *Service) ForgotPassword(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrMissingField
	}
	if _, err := s.backend.ForgotPassword(ctx, username); err != nil {
		return "", fail(err, "Failed to send OTP. Please try again.")
	}
	return MsgOTPSent, nil
}

// ResetPassword completes ForgotPassword with the OTP and a new password.
func (s *Service) ResetPassword(ctx context.Context, username, otp, password string) (string, error) {
	if username == "" || otp == "" {
		return "", ErrMissingField
	}
	if err := validateCredentials(model.Credentials{Username: username, Password: password}); err != nil {
		return "", err
	}
	if _, err := s.backend.VerifyForgotPassword(ctx, username, otp, password); err != nil {
		return "", fail(err, "Failed to reset password. Please try again.")
	}
	return MsgPasswordUpdated, nil
}

// ForgotUsername asks the backend to email an OTP for a username change.
func (s *Service) ForgotUsername(ctx context.Context, email string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if _, err := s.backend.ForgotUsername(ctx, email); err != nil {
		return "", fail(err, "Failed to send OTP. Please try again.")
	}
	return MsgOTPSent, nil
}

// ChangeUsername completes ForgotUsername, setting newUsername.
func (s *Service) ChangeUsername(ctx context.Context, otp, newUsername string) (string, error) {
	if otp == "" {
		return "", ErrMissingField
	}
	if !usernameRe.MatchString(newUsername) {
		return "", ErrInvalidUsername
	}
	if _, err := s.backend.VerifyOTPForgotUsername(ctx, otp, newUsername); err != nil {
		return "", fail(err, "Failed to update username. Please try again.")
	}
	return MsgUsernameUpdated, nil
}
