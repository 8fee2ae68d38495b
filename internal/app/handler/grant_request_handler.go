package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/metrics"
	"asdm/internal/app/repository"
)

// CreateGrantRequest submits a grant request
// @Summary Submit a grant request
// @Description A demandeur submits for itself; agents and admins may submit for utilisateur_id.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param request body dto.CreateGrantRequestRequest true "Request"
// @Success 201 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/demandes [post]
func (h *Handler) CreateGrantRequest(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionCreate, authz.ResourceGrantRequest, nil)
	if !ok {
		return
	}
	var request dto.CreateGrantRequestRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	ownerID := s.UserID
	if request.UserID != nil && *request.UserID != s.UserID {
		if _, ok := h.authorize(c, authz.ActionCreateForOther, authz.ResourceGrantRequest, nil); !ok {
			return
		}
		ownerID = *request.UserID
	}

	req := &ds.GrantRequest{
		UserID:   ownerID,
		Type:     ds.GrantType(request.Type),
		Amount:   request.Amount,
		Comments: strings.TrimSpace(request.Comments),
	}
	if err := h.Workflow.Submit(req); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.CreateGrantRequest(c.Request.Context(), req); err != nil {
		h.errorHandler(c, err)
		return
	}
	metrics.RecordTransition(authz.ResourceGrantRequest, string(req.Status))

	c.JSON(http.StatusCreated, toGrantRequestResponse(req))
}

// ListGrantRequests lists grant requests; a demandeur only sees its own
// @Summary List grant requests
// @Tags Demandes
// @Produce json
// @Param type query string false "formation, equipement or soutien_financier"
// @Param statut query string false "en_attente, en_etude, acceptee or rejetee"
// @Param utilisateur_id query int false "Owner"
// @Param agent_traitant_id query int false "Handling agent"
// @Param search query string false "Search in comments"
// @Param ordering query string false "date_soumission, date_traitement or montant; prefix - for descending"
// @Success 200 {object} dto.ListResponse
// @Router /api/demandes [get]
func (h *Handler) ListGrantRequests(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionList, authz.ResourceGrantRequest, nil)
	if !ok {
		return
	}

	f := repository.GrantRequestFilter{
		OwnerID:  h.Gate.OwnerScope(s, authz.ResourceGrantRequest),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	var err error
	if f.Type, err = queryChoice(c, "type", ds.GrantType.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Status, err = queryChoice(c, "statut", ds.GrantStatus.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.UserID, err = queryUint(c, "utilisateur_id"); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.AgentID, err = queryUint(c, "agent_traitant_id"); err != nil {
		h.errorHandler(c, err)
		return
	}

	reqs, err := h.Repository.ListGrantRequests(c.Request.Context(), f)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	results := make([]dto.GrantRequestResponse, len(reqs))
	for i := range reqs {
		results[i] = toGrantRequestResponse(&reqs[i])
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetGrantRequest returns one grant request with documents and payment
// @Summary Get a grant request
// @Tags Demandes
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id} [get]
func (h *Handler) GetGrantRequest(c *gin.Context) {
	req, _, ok := h.loadGrantRequest(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toGrantRequestResponse(req))
}

// UpdateGrantRequest edits a pending grant request
// @Summary Update a grant request
// @Description Only type, montant and commentaires, and only while the request is en_attente. Changing commentaires needs an agent or admin.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.UpdateGrantRequestRequest true "Fields to change"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id} [put]
func (h *Handler) UpdateGrantRequest(c *gin.Context) {
	req, _, ok := h.loadGrantRequest(c, authz.ActionUpdate)
	if !ok {
		return
	}
	var request dto.UpdateGrantRequestRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}
	if request.Comments != nil {
		if _, ok := h.authorize(c, authz.ActionUpdateStatus, authz.ResourceGrantRequest, req); !ok {
			return
		}
	}
	if req.Status != ds.StatusPending {
		h.errorHandler(c, apperr.Invalid("statut", "not_editable"))
		return
	}

	if request.Type != nil {
		req.Type = ds.GrantType(*request.Type)
	}
	if request.Amount != nil {
		req.Amount = *request.Amount
	}
	if request.Comments != nil {
		req.Comments = strings.TrimSpace(*request.Comments)
	}
	if err := h.Repository.SaveGrantRequest(c.Request.Context(), req); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toGrantRequestResponse(req))
}

// DeleteGrantRequest removes a grant request with its documents and payment
// @Summary Delete a grant request
// @Description The owner may delete while en_attente; an admin at any time.
// @Tags Demandes
// @Param id path int true "Request ID"
// @Success 204
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id} [delete]
func (h *Handler) DeleteGrantRequest(c *gin.Context) {
	req, s, ok := h.loadGrantRequest(c, authz.ActionDelete)
	if !ok {
		return
	}
	if req.Status != ds.StatusPending &&
		!h.Gate.Can(c.Request.Context(), s, authz.ActionDeleteAny, authz.ResourceGrantRequest, req) {
		h.errorHandler(c, apperr.Invalid("statut", "not_deletable"))
		return
	}

	paths, err := h.Repository.DeleteGrantRequest(c.Request.Context(), req.ID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	h.removeFiles(c.Request.Context(), paths)
	c.Status(http.StatusNoContent)
}

// UpdateGrantRequestStatus sets any status
// @Summary Change the status of a grant request
// @Description Agents and admins only. Any enumerated status is accepted, whatever the current one.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/statut [patch]
func (h *Handler) UpdateGrantRequestStatus(c *gin.Context) {
	req, _, ok := h.loadGrantRequest(c, authz.ActionUpdateStatus)
	if !ok {
		return
	}
	var request dto.UpdateStatusRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if err := h.Workflow.UpdateStatus(req, ds.GrantStatus(request.Status), request.Comments); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.SaveGrantRequest(c.Request.Context(), req); err != nil {
		h.errorHandler(c, err)
		return
	}
	metrics.RecordTransition(authz.ResourceGrantRequest, string(req.Status))
	if request.Notify {
		h.notifyOwner(c.Request.Context(), req)
	}
	c.JSON(http.StatusOK, toGrantRequestResponse(req))
}

// AssignAgent sets the handling agent
// @Summary Assign an agent to a grant request
// @Description agent_id is the user id of a user whose role is agent. The status is unchanged.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.AssignAgentRequest true "Agent"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/assigner-agent [post]
func (h *Handler) AssignAgent(c *gin.Context) {
	req, _, ok := h.loadGrantRequest(c, authz.ActionAssign)
	if !ok {
		return
	}
	var request dto.AssignAgentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	agent, err := h.Repository.GetUserByID(c.Request.Context(), request.AgentID)
	if apperr.IsNotFound(err) {
		h.errorHandler(c, apperr.Invalid("agent_id", "not_found"))
		return
	}
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Workflow.AssignAgent(req, agent); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.SaveGrantRequest(c.Request.Context(), req); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toGrantRequestResponse(req))
}

// AcceptGrantRequest accepts a grant request
// @Summary Accept a grant request
// @Description From any non-terminal status. The acting agent becomes the handling agent when none is set.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.DecisionRequest false "Comment"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/accepter [post]
func (h *Handler) AcceptGrantRequest(c *gin.Context) {
	h.decide(c, ds.StatusAccepted)
}

// RejectGrantRequest rejects a grant request
// @Summary Reject a grant request
// @Description From any non-terminal status. The acting agent becomes the handling agent when none is set.
// @Tags Demandes
// @Accept json
// @Produce json
// @Param id path int true "Request ID"
// @Param request body dto.DecisionRequest false "Comment"
// @Success 200 {object} dto.GrantRequestResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/demandes/{id}/rejeter [post]
func (h *Handler) RejectGrantRequest(c *gin.Context) {
	h.decide(c, ds.StatusRejected)
}

func (h *Handler) decide(c *gin.Context, status ds.GrantStatus) {
	req, s, ok := h.loadGrantRequest(c, authz.ActionDecide)
	if !ok {
		return
	}
	var request dto.DecisionRequest
	if err := bindOptionalJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	actor, err := h.Repository.GetUserByID(c.Request.Context(), s.UserID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if status == ds.StatusAccepted {
		err = h.Workflow.Accept(req, actor, request.Comments)
	} else {
		err = h.Workflow.Reject(req, actor, request.Comments)
	}
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.SaveGrantRequest(c.Request.Context(), req); err != nil {
		h.errorHandler(c, err)
		return
	}
	metrics.RecordTransition(authz.ResourceGrantRequest, string(req.Status))
	if request.Notify {
		h.notifyOwner(c.Request.Context(), req)
	}
	c.JSON(http.StatusOK, toGrantRequestResponse(req))
}

// loadGrantRequest authorizes action on grant requests, loads :id and applies
// the ownership policy to it.
func (h *Handler) loadGrantRequest(c *gin.Context, action authz.Action) (*ds.GrantRequest, *ds.Session, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceGrantRequest, nil); !ok {
		return nil, nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, nil, false
	}
	req, err := h.Repository.GetGrantRequest(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, nil, false
	}
	s, ok := h.authorize(c, action, authz.ResourceGrantRequest, req)
	if !ok {
		return nil, nil, false
	}
	return req, s, true
}

var statusLabels = map[ds.GrantStatus]string{
	ds.StatusPending:     "en attente",
	ds.StatusUnderReview: "en cours d'étude",
	ds.StatusAccepted:    "acceptée",
	ds.StatusRejected:    "rejetée",
}

// notifyOwner sends the owner an in-app notification about the current
// status. The status change is already persisted, so failures are logged only.
func (h *Handler) notifyOwner(ctx context.Context, req *ds.GrantRequest) {
	priority := ds.PriorityNormal
	if req.Status.Terminal() {
		priority = ds.PriorityHigh
	}
	n := &ds.Notification{
		UserID:   req.UserID,
		Type:     ds.NotificationInApp,
		Priority: priority,
		Content:  fmt.Sprintf("Votre demande n°%d est %s.", req.ID, statusLabels[req.Status]),
	}
	if err := h.Workflow.NewNotification(n); err != nil {
		logrus.Warnf("notification for request %d: %v", req.ID, err)
		return
	}
	if err := h.Repository.CreateNotification(ctx, n); err != nil {
		logrus.Warnf("notification for request %d: %v", req.ID, err)
	}
}
