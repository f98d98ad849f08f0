package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/session"
	"github.com/cstrack/cstrack-client/internal/session/sessiontest"
)

func serve(t *testing.T, token string, roles ...session.Role) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	g := e.Group("/v1", JWTAuth(sessiontest.Secret, nil), RequireRole(roles...))
	g.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(CtxSubject).(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAndRole(t *testing.T) {
	live := time.Now().Add(time.Hour)
	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not.a.token", http.StatusUnauthorized},
		{"expired", sessiontest.Token("E-7", []string{"ROLE_EMPLOYEE"}, time.Now().Add(-time.Minute), nil), http.StatusUnauthorized},
		{"wrong role", sessiontest.Token("21-1", []string{"ROLE_STUDENT"}, live, nil), http.StatusForbidden},
		{"no role", sessiontest.Token("x", []string{"ROLE_ADMIN"}, live, nil), http.StatusForbidden},
		{"employee", sessiontest.Token("E-7", []string{"ROLE_EMPLOYEE"}, live, nil), http.StatusOK},
	}
	for _, c := range cases {
		rec := serve(t, c.token, session.RoleEmployee)
		if rec.Code != c.want {
			t.Fatalf("%s: status %d, want %d (%s)", c.name, rec.Code, c.want, rec.Body.String())
		}
	}
	if rec := serve(t, sessiontest.Token("E-7", []string{"ROLE_EMPLOYEE"}, live, nil), session.RoleEmployee); rec.Body.String() != "E-7" {
		t.Fatalf("subject = %q", rec.Body.String())
	}
}

func TestJWTAuthRequiresSecret(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("JWTAuth with an empty secret did not panic")
		}
	}()
	JWTAuth("", nil)
}
