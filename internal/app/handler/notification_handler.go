package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/repository"
)

// CreateNotification sends a notification to a user
// @Summary Create a notification
// @Tags Notifications
// @Accept json
// @Produce json
// @Param request body dto.CreateNotificationRequest true "Notification"
// @Success 201 {object} dto.NotificationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/notifications [post]
func (h *Handler) CreateNotification(c *gin.Context) {
	if _, ok := h.authorize(c, authz.ActionCreate, authz.ResourceNotification, nil); !ok {
		return
	}
	var request dto.CreateNotificationRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	n := &ds.Notification{
		UserID:   request.UserID,
		Type:     ds.NotificationType(request.Type),
		Priority: ds.Priority(request.Priority),
		Content:  strings.TrimSpace(request.Content),
	}
	if err := h.Workflow.NewNotification(n); err != nil {
		h.errorHandler(c, err)
		return
	}
	if err := h.Repository.CreateNotification(c.Request.Context(), n); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNotificationResponse(n))
}

// ListNotifications lists notifications; a demandeur only sees its own
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Param utilisateur_id query int false "Recipient"
// @Param type query string false "email, sms or in_app"
// @Param priorite query string false "basse, normale or haute"
// @Param lu query bool false "Read flag"
// @Param search query string false "Search in content"
// @Param ordering query string false "date_envoi; prefix - for descending"
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionList, authz.ResourceNotification, nil)
	if !ok {
		return
	}
	f := repository.NotificationFilter{
		OwnerID:  h.Gate.OwnerScope(s, authz.ResourceNotification),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	var err error
	if f.UserID, err = queryUint(c, "utilisateur_id"); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Type, err = queryChoice(c, "type", ds.NotificationType.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Priority, err = queryChoice(c, "priorite", ds.Priority.Valid); err != nil {
		h.errorHandler(c, err)
		return
	}
	if f.Read, err = queryBool(c, "lu"); err != nil {
		h.errorHandler(c, err)
		return
	}

	ns, err := h.Repository.ListNotifications(c.Request.Context(), f)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	results := make([]dto.NotificationResponse, len(ns))
	for i := range ns {
		results[i] = toNotificationResponse(&ns[i])
	}
	c.JSON(http.StatusOK, dto.ListResponse{Count: len(results), Results: results})
}

// GetNotification returns one notification
// @Summary Get a notification
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.NotificationResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/notifications/{id} [get]
func (h *Handler) GetNotification(c *gin.Context) {
	n, ok := h.loadNotification(c, authz.ActionView)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toNotificationResponse(n))
}

// UpdateNotification edits the content or priority of a notification
// @Summary Update a notification
// @Description lu may only be set to true; an unread flag is never restored.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param request body dto.UpdateNotificationRequest true "Fields to change"
// @Success 200 {object} dto.NotificationResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/notifications/{id} [put]
func (h *Handler) UpdateNotification(c *gin.Context) {
	n, ok := h.loadNotification(c, authz.ActionUpdate)
	if !ok {
		return
	}
	var request dto.UpdateNotificationRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	if request.Read != nil && !*request.Read && n.Read {
		h.errorHandler(c, apperr.Invalid("lu", "cannot_unread"))
		return
	}
	if request.Content != nil {
		content := strings.TrimSpace(*request.Content)
		if content == "" {
			h.errorHandler(c, apperr.Invalid("contenu", "required"))
			return
		}
		n.Content = content
	}
	if request.Priority != nil {
		n.Priority = ds.Priority(*request.Priority)
	}
	if request.Read != nil && *request.Read {
		h.Workflow.MarkRead(n)
	}

	if err := h.Repository.SaveNotification(c.Request.Context(), n); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toNotificationResponse(n))
}

// MarkNotificationRead sets lu to true
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.NotificationResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/notifications/{id}/marquer-lu [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	n, ok := h.loadNotification(c, authz.ActionMarkRead)
	if !ok {
		return
	}
	h.Workflow.MarkRead(n)
	if err := h.Repository.SaveNotification(c.Request.Context(), n); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toNotificationResponse(n))
}

// UnreadNotifications counts the caller's unread notifications
// @Summary Unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/notifications/non-lues [get]
func (h *Handler) UnreadNotifications(c *gin.Context) {
	s, ok := h.authorize(c, authz.ActionList, authz.ResourceNotification, nil)
	if !ok {
		return
	}
	count, err := h.Repository.CountUnread(c.Request.Context(), s.UserID)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Unread: count})
}

// DeleteNotification removes a notification
// @Summary Delete a notification
// @Tags Notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	n, ok := h.loadNotification(c, authz.ActionDelete)
	if !ok {
		return
	}
	if err := h.Repository.DeleteNotification(c.Request.Context(), n.ID); err != nil {
		h.errorHandler(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) loadNotification(c *gin.Context, action authz.Action) (*ds.Notification, bool) {
	if _, ok := h.authorize(c, action, authz.ResourceNotification, nil); !ok {
		return nil, false
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	n, err := h.Repository.GetNotification(c.Request.Context(), id)
	if err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	if _, ok := h.authorize(c, action, authz.ResourceNotification, n); !ok {
		return nil, false
	}
	return n, true
}
