package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/cstrack/cstrack-client/internal/session"
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller has one of the specified roles.  It assumes JWTAuth
// has stored the decoded session.Role under CtxRole.  Missing or other
// roles are answered with 403 Forbidden.
func RequireRole(roles ...session.Role) echo.MiddlewareFunc {
    allowed := make(map[session.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(CtxRole).(session.Role)
            if !ok || role == session.RoleUnknown || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
