package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/middleware"
	"asdm/internal/app/repository"
	"asdm/internal/app/role"
)

// CreateUser registers an account
// @Summary Register a user
// @Description Open registration. Only an admin session may choose a role other than demandeur.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/utilisateurs [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var request dto.CreateUserRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	userRole := role.Demandeur
	if request.Role != "" {
		userRole = role.Role(request.Role)
	}
	if userRole != role.Demandeur &&
		!h.Gate.Can(c.Request.Context(), middleware.CurrentSession(c), authz.ActionCreateStaff, authz.ResourceUser, nil) {
		h.errorHandler(c, apperr.ErrForbidden)
		return
	}

	hash, err := h.hashPassword(request.Password)
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	user := &ds.User{
		LastName:     strings.TrimSpace(request.LastName),
		FirstName:    strings.TrimSpace(request.FirstName),
		Email:        request.Email,
		Phone:        request.Phone,
		PasswordHash: hash,
		Role:         userRole,
		CreatedAt:    time.Now(),
	}
	if err := h.Repository.CreateUser(c.Request.Context(), user); err != nil {
		h.errorHandler(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*user))
}

// ListUsers lists accounts
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "Role filter"
// @Param search query string false "Search in nom, prenom, email"
// @Param ordering query string false "date_creation, nom or email; prefix - for descending"
// @Success 200 {object} dto.ListResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/utilisateurs [get]
func (h *Handler) ListUsers(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionList, authz.ResourceUser, nil); !ok {
		return
	}

	roleFilter, err := queryChoice(c, "role", role.Role.Valid)
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	users, err := h.Repository.ListUsers(c.Request.Context(), repository.UserFilter{
		Role:     roleFilter,
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	})
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	results := make([]dto.UserResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetMe returns the caller's account
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/utilisateurs/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	h.Profile(c)
}

// GetUser returns one account
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.UserResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/utilisateurs/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, ok := h.loadUser(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*user))
}

// UpdateUser edits an account
// @Summary Update a user
// @Description The owner or an admin may edit. The role is fixed at creation.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/utilisateurs/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	user, ok := h.loadUser(c, authz.ActionUpdate)
	if !ok {
		return
	}

	var request dto.UpdateUserRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}
	if request.Role != nil && role.Role(*request.Role) != user.Role {
		h.errorHandler(c, apperr.Invalid("role", "immutable"))
		return
	}
	if request.LastName != nil {
		user.LastName = strings.TrimSpace(*request.LastName)
	}
	if request.FirstName != nil {
		user.FirstName = strings.TrimSpace(*request.FirstName)
	}
	if request.Email != nil {
		user.Email = *request.Email
	}
	if request.Phone != nil {
		user.Phone = *request.Phone
	}
	if request.Password != nil {
		hash, err := h.hashPassword(*request.Password)
		if err != nil {
			h.errorHandler(c, err)
			return
		}
		user.PasswordHash = hash
	}

	if err := h.Repository.UpdateUser(c.Request.Context(), user); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*user))
}

// DeleteUser removes an account and everything it owns
// @Summary Delete a user
// @Tags Users
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/utilisateurs/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionDelete, authz.ResourceUser, nil); !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return
	}

	paths, err := h.Repository.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	h.removeFiles(c.Request.Context(), paths)
	c.Status(http.StatusNoContent)
}

// loadUser authorizes action on users, loads the :id user and applies the
// ownership policy to it.
func (h *Handler) loadUser(c *gin.Context, action authz.Action) (*ds.User, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceUser, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	user, err := h.Repository.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	if _, ok := h.authorize(c, action, authz.ResourceUser, user); !ok {
		return nil, false
	}
	return user, true
}
