package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/cstrack/cstrack-client/internal/model"
)

// TokenHeader carries the bearer token in the login response.
const TokenHeader = "jwt-token"

// Login posts the credentials and returns the issued token.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	resp, _, err := c.do(ctx, http.MethodPost, "/user/login", creds)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(resp.Header.Get(TokenHeader))
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (string, error) {
	return c.post(ctx, "/user/register", reg)
}

func (c *Client) VerifyOTP(ctx context.Context, username, otp string) (string, error) {
	return c.post(ctx, "/user/verify-otp", map[string]string{"username": username, "otp": otp})
}

func (c *Client) ForgotPassword(ctx context.Context, username string) (string, error) {
	return c.post(ctx, "/user/forgot-password", map[string]string{"username": username})
}

func (c *Client) VerifyForgotPassword(ctx context.Context, username, otp, password string) (string, error) {
	return c.post(ctx, "/user/verify-forgot-password", map[string]string{
		"username": username,
		"otp":      otp,
		"password": password,
	})
}

func (c *Client) ForgotUsername(ctx context.Context, email string) (string, error) {
	return c.post(ctx, "/user/forgot-username", map[string]string{"email": email})
}

// VerifyOTPForgotUsername sets username as the account's new username.
func (c *Client) VerifyOTPForgotUsername(ctx context.Context, otp, username string) (string, error) {
	return c.post(ctx, "/user/verify-otp-forgot-username", map[string]string{"otp": otp, "username": username})
}

func (c *Client) Employee(ctx context.Context, employeeNumber string) (model.Employee, error) {
	var e model.Employee
	err := c.get(ctx, "/employee/employeeNumber/"+url.PathEscape(employeeNumber), &e)
	return e, err
}

// SlipsByArea lists the CS slips assigned to a service station.
func (c *Client) SlipsByArea(ctx context.Context, stationName string) ([]model.CsSlip, error) {
	var out []model.CsSlip
	err := c.get(ctx, "/csSlip/areaOfCs/"+url.PathEscape(stationName), &out)
	return out, err
}

// TotalCsHours returns the student's required community-service hours.
func (c *Client) TotalCsHours(ctx context.Context, studentNumber string) (float64, error) {
	var hours float64
	err := c.get(ctx, "/csSlip/totalCsHours/"+url.PathEscape(studentNumber), &hours)
	return hours, err
}

func (c *Client) CommServSlip(ctx context.Context, slipID string) (model.CommServSlip, error) {
	var s model.CommServSlip
	err := c.get(ctx, "/csSlip/commServSlip/"+url.PathEscape(slipID), &s)
	return s, err
}

func (c *Client) SlipsByStudent(ctx context.Context, studentNumber string) ([]model.CsSlip, error) {
	var out []model.CsSlip
	err := c.get(ctx, "/csSlip/studentNumber/"+url.PathEscape(studentNumber), &out)
	return out, err
}

func (c *Client) ViolationsByStudent(ctx context.Context, studentNumber string) ([]model.Violation, error) {
	var out []model.Violation
	err := c.get(ctx, "/violation/studentNumber/"+url.PathEscape(studentNumber), &out)
	return out, err
}

// GuestBeneficiaries lists the students a guest is registered for.
func (c *Client) GuestBeneficiaries(ctx context.Context, guestID string) ([]model.GuestBeneficiaries, error) {
	var out []model.GuestBeneficiaries
	err := c.get(ctx, "/guest/"+url.PathEscape(guestID)+"/Beneficiaries", &out)
	return out, err
}

// AddCsReportForSlip logs a service record against a slip.
func (c *Client) AddCsReportForSlip(ctx context.Context, slipID string, report model.NewCsReport) error {
	_, err := c.post(ctx, "/csreport/addCsReportForSlip/"+url.PathEscape(slipID), report)
	return err
}
