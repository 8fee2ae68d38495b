package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/repository"
)

// ListAgents lists agent profiles
// @Summary List agents
// @Tags Agents
// @Produce json
// @Param departement query string false "Department"
// @Param droits_validation query bool false "Validation rights"
// @Param search query string false "Search in department, function and user identity"
// @Success 200 {object} dto.ListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/agents [get]
func (h *Handler) ListAgents(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionList, authz.ResourceAgent, nil); !ok {
		return
	}
	canValidate, err := queryBool(c, "droits_validation")
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	agents, err := h.Repository.ListAgents(c.Request.Context(), repository.AgentFilter{
		Department:  c.Query("departement"),
		CanValidate: canValidate,
		Search:      c.Query("search"),
	})
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	results := make([]dto.AgentResponse, len(agents))
	for i, a := range agents {
		results[i] = toAgentResponse(a)
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetAgent returns one agent profile
// @Summary Get an agent
// @Tags Agents
// @Produce json
// @Param id path int true "Agent ID"
// @Success 200 {object} dto.AgentResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/{id} [get]
func (h *Handler) GetAgent(c *gin.Context) {
	agent, ok := h.loadAgent(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toAgentResponse(*agent))
}

// CreateAgent attaches an agent profile to a user with role agent
// @Summary Create an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body dto.CreateAgentRequest true "Agent"
// @Success 201 {object} dto.AgentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/agents [post]
func (h *Handler) CreateAgent(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionCreate, authz.ResourceAgent, nil); !ok {
		return
	}
	var request dto.CreateAgentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	agent := &ds.Agent{
		UserID:      request.UserID,
		Department:  request.Department,
		Function:    request.Function,
		CanValidate: request.CanValidate,
	}
	if err := h.Repository.CreateAgent(c.Request.Context(), agent); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAgentResponse(*agent))
}

// UpdateAgent edits an agent profile
// @Summary Update an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param id path int true "Agent ID"
// @Param request body dto.UpdateAgentRequest true "Fields to change"
// @Success 200 {object} dto.AgentResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/{id} [put]
func (h *Handler) UpdateAgent(c *gin.Context) {
	agent, ok := h.loadAgent(c, authz.ActionUpdate)
	if !ok {
		return
	}

	var request dto.UpdateAgentRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if request.Department != nil {
		agent.Department = *request.Department
	}
	if request.Function != nil {
		agent.Function = *request.Function
	}
	if request.CanValidate != nil {
		agent.CanValidate = *request.CanValidate
	}
	if err := h.Repository.UpdateAgent(c.Request.Context(), agent); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toAgentResponse(*agent))
}

// DeleteAgent removes an agent profile; the user account is kept
// @Summary Delete an agent
// @Tags Agents
// @Param id path int true "Agent ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/agents/{id} [delete]
func (h *Handler) DeleteAgent(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionDelete, authz.ResourceAgent, nil); !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.DeleteAgent(c.Request.Context(), id); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadAgent(c *gin.Context, action authz.Action) (*ds.Agent, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceAgent, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	agent, err := h.Repository.GetAgentByID(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	return agent, true
}
