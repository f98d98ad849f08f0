package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cstrack/cstrack-client/internal/session"
)

// Context keys set by JWTAuth.
const (
    CtxSubject = "subject"
    CtxRole    = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer token issued by
// the backend and injects the token's subject and role into the request
// context.  Unlike the client guard, the signature is always checked: the
// secret must match the backend's HS256 key, and an empty secret panics
// since it would turn verification off.  Handlers read the values via
// c.Get(CtxSubject) and c.Get(CtxRole).
func JWTAuth(secret string, now func() time.Time) echo.MiddlewareFunc {
    if secret == "" {
        panic("empty secret passed to JWTAuth")
    }
    if now == nil {
        now = time.Now
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            claims, err := session.DecodeClaims(raw, secret)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            if claims.Expired(now()) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
            }

            c.Set(CtxSubject, claims.Subject)
            c.Set(CtxRole, claims.Role)
            return next(c)
        }
    }
}
