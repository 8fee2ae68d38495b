package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
	"asdm/internal/app/dto"
	"asdm/internal/app/role"
)

const (
	SessionHeader = "X-Session-ID"
	sessionKey    = "session"
)

// SessionStore resolves a session id to its claim.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*ds.Session, error)
}

type AuthMiddleware struct {
	Sessions   SessionStore
	CookieName string
}

func NewAuthMiddleware(sessions SessionStore, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		Sessions:   sessions,
		CookieName: cookieName,
	}
}

// SessionID reads the session id from the cookie, then from the header.
func (am *AuthMiddleware) SessionID(gCtx *gin.Context) string {
	if id, err := gCtx.Cookie(am.CookieName); err == nil && id != "" {
		return id
	}
	return gCtx.GetHeader(SessionHeader)
}

// WithAuthCheck rejects requests without a valid session. With roles given,
// the session role must be one of them.
func (am *AuthMiddleware) WithAuthCheck(assignedRoles ...role.Role) gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		s, err := am.Sessions.GetSession(gCtx.Request.Context(), am.SessionID(gCtx))
		if err != nil {
			if !errors.Is(err, apperr.ErrUnauthenticated) {
				logrus.Error("session lookup: ", err)
			}
			abort(gCtx, apperr.ErrUnauthenticated)
			return
		}

		if len(assignedRoles) > 0 && !hasRequiredRole(s.Role, assignedRoles) {
			abort(gCtx, apperr.ErrForbidden)
			return
		}

		gCtx.Set(sessionKey, s)
		gCtx.Next()
	}
}

// WithOptionalSession attaches the session when one is presented and lets
// anonymous requests through.
func (am *AuthMiddleware) WithOptionalSession() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		if id := am.SessionID(gCtx); id != "" {
			if s, err := am.Sessions.GetSession(gCtx.Request.Context(), id); err == nil {
				gCtx.Set(sessionKey, s)
			}
		}
		gCtx.Next()
	}
}

// CurrentSession returns the session set by WithAuthCheck, or nil.
func CurrentSession(gCtx *gin.Context) *ds.Session {
	if v, ok := gCtx.Get(sessionKey); ok {
		if s, ok := v.(*ds.Session); ok {
			return s
		}
	}
	return nil
}

func hasRequiredRole(userRole role.Role, requiredRoles []role.Role) bool {
	for _, requiredRole := range requiredRoles {
		if userRole == requiredRole {
			return true
		}
	}
	return false
}

func abort(gCtx *gin.Context, err error) {
	status := apperr.Status(err)
	gCtx.AbortWithStatusJSON(status, dto.ErrorResponse{
		Status:  "fail",
		Message: http.StatusText(status),
	})
}
