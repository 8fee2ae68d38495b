package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/stats"
)

const (
	chartMonths      = 12
	defaultTopAgents = 5
)

// DashboardStats returns the global counters
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dto.StatsResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/dashboard/stats [get]
func (h *Handler) DashboardStats(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionView, authz.ResourceDashboard, nil); !ok {
		return
	}
	st, err := h.collectStats(c.Request.Context())
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DashboardCharts returns chart series
// @Summary Dashboard charts
// @Description Monthly submissions over the trailing twelve months, and request counts and amounts per type.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dto.ChartsResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/dashboard/graphiques [get]
func (h *Handler) DashboardCharts(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionView, authz.ResourceDashboard, nil); !ok {
		return
	}
	ctx := c.Request.Context()
	now := h.now()

	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(chartMonths - 1), 0)
	dates, err := h.Repository.SubmissionDates(ctx, since)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	totals, err := h.Repository.TotalsByType(ctx)
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	resp := dto.ChartsResponse{
		MonthlyRequests: stats.MonthlyCounts(now, dates, chartMonths),
		RequestsByType:  make(map[string]int64, len(totals)),
		AmountsByType:   make(map[string]float64, len(totals)),
	}
	for _, t := range totals {
		resp.RequestsByType[string(t.Type)] = t.Count
		resp.AmountsByType[string(t.Type)] = t.Amount
	}
	c.JSON(http.StatusOK, resp)
}

// DashboardMetrics returns performance indicators
// @Summary Dashboard metrics
// @Description Acceptance rate in percent, mean processing delay in whole days and the agents with the most decided requests.
// @Tags Dashboard
// @Produce json
// @Param top query int false "Number of agents, default 5"
// @Success 200 {object} dto.MetricsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/dashboard/metriques [get]
func (h *Handler) DashboardMetrics(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionView, authz.ResourceDashboard, nil); !ok {
		return
	}
	top := defaultTopAgents
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.errorHandler(c, apperr.Invalid("top", "invalid_number"))
			return
		}
		top = n
	}

	ctx := c.Request.Context()
	byStatus, err := h.Repository.CountGrantRequestsByStatus(ctx)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	spans, err := h.Repository.ProcessingSpans(ctx)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	counts, err := h.Repository.AgentDecisionCounts(ctx)
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	agents := stats.TopAgents(counts, top)
	if agents == nil {
		agents = []stats.AgentCount{}
	}
	c.JSON(http.StatusOK, dto.MetricsResponse{
		AcceptanceRate:     stats.AcceptanceRate(byStatus[ds.StatusAccepted], byStatus[ds.StatusRejected]),
		MeanProcessingDays: stats.MeanProcessingDays(spans),
		TopAgents:          agents,
	})
}

// collectStats gathers the counters shared by the stats endpoint and
// generated reports.
func (h *Handler) collectStats(ctx context.Context) (*dto.StatsResponse, error) {
	users, err := h.Repository.CountUsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := h.Repository.CountGrantRequestsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := h.Repository.CountPaymentsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	documents, err := h.Repository.CountDocumentsByType(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := h.Repository.CountAllUnread(ctx)
	if err != nil {
		return nil, err
	}
	requested, err := h.Repository.TotalRequested(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := h.Repository.TotalPaid(ctx)
	if err != nil {
		return nil, err
	}

	st := &dto.StatsResponse{
		UsersByRole:         stringKeys(users),
		RequestsByStatus:    stringKeys(requests),
		TotalRequested:      requested,
		TotalPaid:           paid,
		DocumentsByType:     stringKeys(documents),
		UnreadNotifications: unread,
		PaymentsByStatus:    stringKeys(payments),
	}
	for _, n := range requests {
		st.TotalRequests += n
	}
	return st, nil
}

func stringKeys[K ~string](m map[K]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
