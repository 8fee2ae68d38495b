package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/repository"
	"asdm/internal/app/role"
)

// CreateReport stores a report
// @Summary Create a report
// @Description An agent reports under its own agent profile; an admin must pass agent_id.
// @Tags Rapports
// @Accept json
// @Produce json
// @Param request body dto.CreateReportRequest true "Report"
// @Success 201 {object} dto.ReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/rapports [post]
func (h *Handler) CreateReport(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionCreate, authz.ResourceReport, nil)
	if !ok {
		return
	}
	var request dto.CreateReportRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}
	if len(request.Statistics) > 0 && !json.Valid(request.Statistics) {
		h.errorHandler(c, apperr.Invalid("statistiques", "invalid_json"))
		return
	}

	agentID, err := h.reportAgent(c.Request.Context(), s, request.AgentID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	rep := &ds.Report{
		AgentID:    agentID,
		Period:     strings.TrimSpace(request.Period),
		Format:     ds.ReportFormat(request.Format),
		Statistics: string(request.Statistics),
		Content:    request.Content,
	}
	h.createReport(c, rep)
}

// GenerateReport snapshots the dashboard statistics into a new report
// @Summary Generate a report
// @Description statistiques holds the dashboard counters at generation time; contenu is CSV for the csv format and a plain-text summary otherwise.
// @Tags Rapports
// @Accept json
// @Produce json
// @Param request body dto.GenerateReportRequest true "Period and format"
// @Success 201 {object} dto.ReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/rapports/generer [post]
func (h *Handler) GenerateReport(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionGenerate, authz.ResourceReport, nil)
	if !ok {
		return
	}
	var request dto.GenerateReportRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	ctx := c.Request.Context()
	agentID, err := h.reportAgent(ctx, s, request.AgentID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	st, err := h.collectStats(ctx)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	rep := &ds.Report{
		AgentID:    agentID,
		Period:     strings.TrimSpace(request.Period),
		Format:     ds.ReportFormat(request.Format),
		Statistics: string(raw),
	}
	if rep.Format == ds.ReportCSV {
		rep.Content, err = statsCSV(st)
		if err != nil {
			h.errorHandler(c, err)
			return
		}
	} else {
		rep.Content = statsSummary(rep.Period, st)
	}
	h.createReport(c, rep)
}

func (h *Handler) createReport(c *gin.Context, rep *ds.Report) {
	if err := h.Workflow.NewReport(rep); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.CreateReport(c.Request.Context(), rep); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReportResponse(rep))
}

// reportAgent resolves the agent profile a new report belongs to.
func (h *Handler) reportAgent(ctx context.Context, s *ds.Session, requested *uint) (uint, error) {
	if s.Role == role.Agent {
		agent, err := h.Repository.GetAgentByUserID(ctx, s.UserID)
		if apperr.IsNotFound(err) {
			return 0, apperr.Invalid("agent_id", "agent_profile_missing")
		}
		if err != nil {
			return 0, err
		}
		return agent.ID, nil
	}
	if requested == nil || *requested == 0 {
		return 0, apperr.Invalid("agent_id", "required")
	}
	return *requested, nil
}

// ListReports lists reports
// @Summary List reports
// @Tags Rapports
// @Produce json
// @Param agent_id query int false "Agent profile ID"
// @Param format query string false "pdf, csv or excel"
// @Param search query string false "Search in period"
// @Param ordering query string false "date_generation or periode; prefix - for descending"
// @Success 200 {object} dto.ListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/rapports [get]
func (h *Handler) ListReports(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionList, authz.ResourceReport, nil); !ok {
		return
	}
	f := repository.ReportFilter{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	var err error
	if f.AgentID, err = queryUint(c, "agent_id"); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Format, err = queryChoice(c, "format", ds.ReportFormat.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}

	reports, err := h.Repository.ListReports(c.Request.Context(), f)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	results := make([]dto.ReportResponse, len(reports))
	for i := range reports {
		results[i] = toReportResponse(&reports[i])
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetReport returns one report
// @Summary Get a report
// @Tags Rapports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/rapports/{id} [get]
func (h *Handler) GetReport(c *gin.Context) {
	rep, ok := h.loadReport(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toReportResponse(rep))
}

// UpdateReport edits period, format or content
// @Summary Update a report
// @Tags Rapports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param request body dto.UpdateReportRequest true "Fields to change"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/rapports/{id} [put]
func (h *Handler) UpdateReport(c *gin.Context) {
	rep, ok := h.loadReport(c, authz.ActionUpdate)
	if !ok {
		return
	}
	var request dto.UpdateReportRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if request.Period != nil {
		rep.Period = strings.TrimSpace(*request.Period)
	}
	if request.Format != nil {
		rep.Format = ds.ReportFormat(*request.Format)
	}
	if request.Content != nil {
		rep.Content = *request.Content
	}
	if rep.Period == "" {
		h.errorHandler(c, apperr.Invalid("periode", "required"))
		return
	}
	if err := h.Repository.SaveReport(c.Request.Context(), rep); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toReportResponse(rep))
}

// DeleteReport removes a report
// @Summary Delete a report
// @Tags Rapports
// @Param id path int true "Report ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/rapports/{id} [delete]
func (h *Handler) DeleteReport(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionDelete, authz.ResourceReport, nil); !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.DeleteReport(c.Request.Context(), id); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadReport(c *gin.Context, action authz.Action) (*ds.Report, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceReport, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	rep, err := h.Repository.GetReport(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	return rep, true
}

// statsCSV renders the counters as "indicateur,cle,valeur" rows.
func statsCSV(st *dto.StatsResponse) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"indicateur", "cle", "valeur"}}
	rows = append(rows, countRows("utilisateurs_par_role", st.UsersByRole)...)
	rows = append(rows, countRows("demandes_par_statut", st.RequestsByStatus)...)
	rows = append(rows,
		[]string{"total_demandes", "", strconv.FormatInt(st.TotalRequests, 10)},
		[]string{"montant_total_demande", "", strconv.FormatFloat(st.TotalRequested, 'f', 2, 64)},
		[]string{"montant_total_paye", "", strconv.FormatFloat(st.TotalPaid, 'f', 2, 64)},
	)
	rows = append(rows, countRows("documents_par_type", st.DocumentsByType)...)
	rows = append(rows, []string{"notifications_non_lues", "", strconv.FormatInt(st.UnreadNotifications, 10)})
	rows = append(rows, countRows("paiements_par_statut", st.PaymentsByStatus)...)

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("render csv: %w", err)
	}
	return buf.String(), nil
}

func countRows(name string, counts map[string]int64) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{name, k, strconv.FormatInt(counts[k], 10)}
	}
	return rows
}

func statsSummary(period string, st *dto.StatsResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rapport ASDM - période %s\n", period)
	fmt.Fprintf(&b, "Demandes: %d\n", st.TotalRequests)
	for _, s := range ds.GrantStatuses {
		fmt.Fprintf(&b, "  %s: %d\n", s, st.RequestsByStatus[string(s)])
	}
	fmt.Fprintf(&b, "Montant total demandé: %.2f\n", st.TotalRequested)
	fmt.Fprintf(&b, "Montant total payé: %.2f\n", st.TotalPaid)
	fmt.Fprintf(&b, "Notifications non lues: %d\n", st.UnreadNotifications)
	return b.String()
}
