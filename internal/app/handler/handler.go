package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"asdm/internal/app/apperr"
	"asdm/internal/app/authz"
	"asdm/internal/app/config"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/middleware"
	"asdm/internal/app/repository"
	"asdm/internal/app/storage"
	"asdm/internal/app/workflow"
)

// SessionStore opens, resolves and closes login sessions.
type SessionStore interface {
	middleware.SessionStore
	CreateSession(ctx context.Context, user *ds.User) (*ds.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Handler serves the REST API. Every action authorizes through Gate, applies
// the transition through Workflow and persists through Repository.
type Handler struct {
	Repository *repository.Repository
	Sessions   SessionStore
	Files      storage.FileStore
	Gate       *authz.Gate
	Workflow   *workflow.Engine
	Config     *config.Config
	Auth       *middleware.AuthMiddleware

	// PasswordCost is the bcrypt cost for new password hashes.
	PasswordCost int
	now          func() time.Time
}

func NewHandler(r *repository.Repository, sessions SessionStore, files storage.FileStore, cfg *config.Config) *Handler {
	return &Handler{
		Repository:   r,
		Sessions:     sessions,
		Files:        files,
		Gate:         authz.NewGate(),
		Workflow:     workflow.New(nil),
		Config:       cfg,
		Auth:         middleware.NewAuthMiddleware(sessions, cfg.Session.CookieName),
		PasswordCost: bcrypt.DefaultCost,
		now:          time.Now,
	}
}

// ============ Responses ============

func (h *Handler) successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

// errorHandler answers with the status mapped from err. Server errors are
// logged and their details hidden from the client.
func (h *Handler) errorHandler(c *gin.Context, err error) {
	status := apperr.Status(err)
	response := dto.ErrorResponse{
		Status:  "fail",
		Message: err.Error(),
	}

	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Message = "validation failed"
		response.Errors = ve.Fields
	case status == http.StatusInternalServerError:
		logrus.WithField("path", c.FullPath()).Error(err)
		response.Message = "internal server error"
	}
	if status != http.StatusInternalServerError {
		logrus.WithField("path", c.FullPath()).Debugf("%d: %v", status, err)
	}
	c.JSON(status, response)
}

// ============ Authorization ============

// authorize checks the caller's role for action on resourceType. obj, when
// not nil, is additionally checked against the resource's ownership policy.
// The error response is written when false is returned.
func (h *Handler) authorize(c *gin.Context, action authz.Action, resourceType string, obj any) (*ds.Session, bool) {
	s := middleware.CurrentSession(c)
	if err := h.Gate.Authorize(c.Request.Context(), s, action, resourceType, obj); err != nil {
		h.errorHandler(c, err)
		return nil, false
	}
	return s, true
}

// ============ Request parsing ============

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Invalid(name, "invalid_id")
	}
	return uint(id), nil
}

func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, apperr.Invalid(name, "invalid_id")
	}
	id := uint(v)
	return &id, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid(name, "invalid_boolean")
	}
	return &v, nil
}

// queryChoice returns the query value when valid reports true for it.
func queryChoice[T ~string](c *gin.Context, name string, valid func(T) bool) (T, error) {
	v := T(strings.TrimSpace(c.Query(name)))
	if v != "" && !valid(v) {
		return "", apperr.Invalid(name, "invalid_choice")
	}
	return v, nil
}

func (h *Handler) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// removeFiles drops stored files of deleted documents. Failures only leave
// orphaned files behind, so they are logged.
func (h *Handler) removeFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := h.Files.Delete(ctx, p); err != nil {
			logrus.Warnf("failed to delete stored file %s: %v", p, err)
		}
	}
}

// Ping reports that the API is up.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Index describes the API.
// @Summary API index
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api [get]
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":   h.Config.SiteTitle,
		"swagger": "/swagger/index.html",
	})
}
