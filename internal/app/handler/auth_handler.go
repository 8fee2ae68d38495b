package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"asdm/internal/app/apperr"
	"asdm/internal/app/dto"
	"asdm/internal/app/middleware"
)

var errBadCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)

// Login opens a session
// @Summary Login
// @Description Checks the credentials and opens a server-side session; the id is set in the sessionid cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var request dto.LoginRequest
	if err := bindJSON(c, &request); err != nil {
		h.errorHandler(c, err)
		return
	}

	user, err := h.Repository.GetUserByEmail(c.Request.Context(), request.Email)
	if apperr.IsNotFound(err) {
		h.errorHandler(c, errBadCredentials)
		return
	}
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)) != nil {
		h.errorHandler(c, errBadCredentials)
		return
	}

	s, err := h.Sessions.CreateSession(c.Request.Context(), user)
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	logrus.Infof("user %d logged in as %s", user.ID, user.Role)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Config.Session.CookieName, s.ID, int(h.Config.Session.TTL.Seconds()), "/", "", h.Config.Session.Secure, true)
	c.JSON(http.StatusOK, dto.LoginResponse{
		SessionID: s.ID,
		User:      toUserResponse(*user),
	})
}

// Logout closes the current session
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if id := h.Auth.SessionID(c); id != "" {
		if err := h.Sessions.DeleteSession(c.Request.Context(), id); err != nil {
			h.errorHandler(c, err)
			return
		}
	}

	c.SetCookie(h.Config.Session.CookieName, "", -1, "/", "", h.Config.Session.Secure, true)
	h.successResponse(c, http.StatusOK, "logged out", nil)
}

// Profile returns the logged-in user
// @Summary Current user profile
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s == nil {
		h.errorHandler(c, apperr.ErrUnauthenticated)
		return
	}

	user, err := h.Repository.GetUserByID(c.Request.Context(), s.UserID)
	if apperr.IsNotFound(err) {
		// the account was deleted while the session was still alive
		h.errorHandler(c, apperr.ErrUnauthenticated)
		return
	}
	if err != nil {
		h.errorHandler(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*user))
}
