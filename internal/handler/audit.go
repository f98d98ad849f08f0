package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cstrack/cstrack-client/internal/model"
	"github.com/cstrack/cstrack-client/internal/repository"
)

// AuditReader is the read side of the report audit repository.
type AuditReader interface {
	ListBySlip(ctx context.Context, slipID string) ([]model.ReportAudit, error)
	SlipHours(ctx context.Context, slipID string) (int, error)
}

// AuditHandler serves audited service records to employees.
type AuditHandler struct {
	Repo AuditReader
}

func NewAuditHandler(repo AuditReader) *AuditHandler {
	if repo == nil {
		panic("nil repository passed to NewAuditHandler")
	}
	return &AuditHandler{Repo: repo}
}

type slipReportsResp struct {
	SlipID     string              `json:"slip_id"`
	TotalHours int                 `json:"total_hours"`
	Reports    []model.ReportAudit `json:"reports"`
}

// ListSlipReports handles GET /v1/audit/slips/:id/reports.
func (h *AuditHandler) ListSlipReports(c echo.Context) error {
	slipID := strings.TrimSpace(c.Param("id"))
	if slipID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slip id required"})
	}
	ctx := c.Request().Context()

	hours, err := h.Repo.SlipHours(ctx, slipID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no audited reports for slip"})
	}
	if err != nil {
		c.Logger().Errorf("slip hours %s: %v", slipID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reports failed"})
	}

	reports, err := h.Repo.ListBySlip(ctx, slipID)
	if err != nil {
		c.Logger().Errorf("list slip %s: %v", slipID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reports failed"})
	}
	if reports == nil {
		reports = []model.ReportAudit{}
	}
	return c.JSON(http.StatusOK, slipReportsResp{SlipID: slipID, TotalHours: hours, Reports: reports})
}
