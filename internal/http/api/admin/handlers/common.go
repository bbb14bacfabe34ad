package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
	log "github.com/sirupsen/logrus"
)

// Context keys shared with middleware.
const (
	// ContextAdminID holds the authenticated admin ID (uint64).
	ContextAdminID = "adminID"
	// ContextRequestID holds the request correlation ID (string).
	ContextRequestID = "requestID"
)

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// setSessionCookie writes the session cookie. It is HTTP-only and
// same-site strict; Secure is set in production.
func setSessionCookie(c *gin.Context, cfg CookieConfig, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(c *gin.Context, cfg CookieConfig) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// SessionAdminID verifies the session cookie and returns its admin ID.
func SessionAdminID(c *gin.Context, svc *auth.Service) (uint64, bool) {
	token, errCookie := c.Cookie(SessionCookieName)
	if errCookie != nil || token == "" {
		return 0, false
	}
	return svc.VerifySession(token)
}

// readAdminIDFromContext returns the admin ID set by the session middleware.
func readAdminIDFromContext(c *gin.Context) (uint64, bool) {
	value, ok := c.Get(ContextAdminID)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

func requestLogger(c *gin.Context) *log.Entry {
	entry := log.WithField("path", c.FullPath())
	if requestID, ok := c.Get(ContextRequestID); ok {
		entry = entry.WithField("request_id", requestID)
	}
	if adminID, ok := readAdminIDFromContext(c); ok {
		entry = entry.WithField("admin_id", adminID)
	}
	return entry
}

// writeAuthError maps an auth error to a status code and a generic body.
// failureMessage is used for every verification-type failure so callers
// cannot tell which check rejected them.
func writeAuthError(c *gin.Context, err error, failureMessage string) {
	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, auth.ErrInvalidInputFormat):
		status, message = http.StatusBadRequest, "invalid request"
	case errors.Is(err, auth.ErrInvalidCredential):
		status, message = http.StatusUnauthorized, "invalid PIN"
	case errors.Is(err, auth.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrChallengeExpired),
		errors.Is(err, auth.ErrVerificationFailed),
		errors.Is(err, auth.ErrCredentialNotFound),
		errors.Is(err, auth.ErrOwnershipMismatch),
		errors.Is(err, auth.ErrCounterRegressed):
		status, message = http.StatusUnauthorized, failureMessage
	case errors.Is(err, auth.ErrNoCredentialsRegistered):
		status, message = http.StatusNotFound, "no credentials registered"
	case errors.Is(err, auth.ErrNotFoundOrUnauthorized):
		status, message = http.StatusBadRequest, "failed to delete"
	}
	if status == http.StatusInternalServerError {
		requestLogger(c).WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}
