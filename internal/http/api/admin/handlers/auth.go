package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
)

// AuthHandler handles PIN login and session endpoints.
type AuthHandler struct {
	svc    *auth.Service
	cookie CookieConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *auth.Service, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

// loginRequest defines the request body for PIN login.
type loginRequest struct {
	PIN string `json:"pin"`
}

// Login verifies the PIN (bootstrapping the admin on first use) and sets
// the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !auth.ValidPIN(body.PIN) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be exactly 4 digits"})
		return
	}

	result, err := h.svc.LoginWithPIN(c.Request.Context(), body.PIN)
	if err != nil {
		writeAuthError(c, err, "invalid PIN")
		return
	}

	setSessionCookie(c, h.cookie, result.Token)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"isFirstLogin": result.IsFirstLogin,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cookie)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session reports whether the caller holds a valid session and which
// credentials are registered.
func (h *AuthHandler) Session(c *gin.Context) {
	adminID, ok := SessionAdminID(c, h.svc)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	status, err := h.svc.SessionStatus(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
			return
		}
		writeAuthError(c, err, "unauthorized")
		return
	}
	c.JSON(http.StatusOK, status)
}
