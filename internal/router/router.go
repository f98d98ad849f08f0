package router // package router defines how HTTP routes are registered for the audit daemon

import (
	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/handler"
	"github.com/cstrack/cstrack-client/internal/middleware"
	"github.com/cstrack/cstrack-client/internal/session"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAudit registers the audit listing under /v1.  Every route needs
// a valid employee token signed with jwtSecret.
func RegisterAudit(e *echo.Echo, a *handler.AuditHandler, jwtSecret string) {
	g := e.Group("/v1/audit")
	g.Use(middleware.JWTAuth(jwtSecret, nil))
	g.Use(middleware.RequireRole(session.RoleEmployee))
	g.GET("/slips/:id/reports", a.ListSlipReports)
}
