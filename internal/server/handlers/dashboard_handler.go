package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/domain/models"
	"github.com/mamadbah2/farmerp/internal/service/dashboard"
)

// DashboardHandler serves the read-only dashboards.
type DashboardHandler struct {
	svc    *dashboard.Service
	logger *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter.
func NewDashboardHandler(svc *dashboard.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: nopIfNil(logger)}
}

// AgricultureResponse is the agriculture dashboard payload.
type AgricultureResponse struct {
	Summary     models.AgricultureSummary `json:"summary"`
	Assignments []models.AssignmentRow    `json:"assignments"`
	Total       int64                     `json:"total"`
	TotalPages  int                       `json:"totalPages"`
	CurrentPage int                       `json:"currentPage"`
}

func (h *DashboardHandler) Agriculture(c *gin.Context) {
	page := pageOf(c)
	summary, rows, total, err := h.svc.Agriculture(c.Request.Context(), page)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Agriculture dashboard retrieved successfully", AgricultureResponse{
		Summary:     summary,
		Assignments: rows,
		Total:       total,
		TotalPages:  page.TotalPages(total),
		CurrentPage: page.Page,
	})
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop summary retrieved successfully", summary)
}

func (h *DashboardHandler) Yield(c *gin.Context) {
	rows, err := h.svc.Yield(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Crop yield retrieved successfully", rows)
}

func (h *DashboardHandler) LowStock(c *gin.Context) {
	rows, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, "Low stock retrieved successfully", rows)
}
