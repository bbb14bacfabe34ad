package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
)

// PasskeyHandler handles WebAuthn registration, authentication and
// credential management endpoints.
type PasskeyHandler struct {
	svc    *auth.Service
	cookie CookieConfig
}

// NewPasskeyHandler constructs a PasskeyHandler.
func NewPasskeyHandler(svc *auth.Service, cookie CookieConfig) *PasskeyHandler {
	return &PasskeyHandler{svc: svc, cookie: cookie}
}

// registerVerifyRequest defines the request body for finishing registration.
type registerVerifyRequest struct {
	Credential json.RawMessage `json:"credential"`
	DeviceName string          `json:"deviceName"`
}

// authenticateVerifyRequest defines the request body for finishing authentication.
type authenticateVerifyRequest struct {
	Credential json.RawMessage `json:"credential"`
	AdminID    uint64          `json:"adminId"`
}

// RegistrationOptions starts a registration ceremony for the session admin.
func (h *PasskeyHandler) RegistrationOptions(c *gin.Context) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	creation, err := h.svc.BeginRegistration(c.Request.Context(), adminID)
	if err != nil {
		writeAuthError(c, err, "registration failed")
		return
	}
	c.JSON(http.StatusOK, creation.Response)
}

// RegistrationVerify finishes a registration ceremony.
func (h *PasskeyHandler) RegistrationVerify(c *gin.Context) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body registerVerifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	summary, err := h.svc.FinishRegistration(c.Request.Context(), adminID, body.Credential, body.DeviceName)
	if err != nil {
		writeAuthError(c, err, "verification failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true, "credential": summary})
}

// AuthenticationOptions starts an authentication ceremony. The returned
// adminId must be echoed back to AuthenticationVerify.
func (h *PasskeyHandler) AuthenticationOptions(c *gin.Context) {
	assertion, adminID, err := h.svc.BeginAuthentication(c.Request.Context())
	if err != nil {
		writeAuthError(c, err, "authentication failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": assertion.Response, "adminId": adminID})
}

// AuthenticationVerify finishes an authentication ceremony and sets the
// session cookie.
func (h *PasskeyHandler) AuthenticationVerify(c *gin.Context) {
	var body authenticateVerifyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.AdminID == 0 || len(body.Credential) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "credential and adminId are required"})
		return
	}

	result, err := h.svc.FinishAuthentication(c.Request.Context(), body.AdminID, body.Credential)
	if err != nil {
		writeAuthError(c, err, "authentication failed")
		return
	}
	setSessionCookie(c, h.cookie, result.Token)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCredentials returns the session admin's credentials.
func (h *PasskeyHandler) ListCredentials(c *gin.Context) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	summaries, err := h.svc.ListCredentials(c.Request.Context(), adminID)
	if err != nil {
		writeAuthError(c, err, "unauthorized")
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// DeleteCredential removes one of the session admin's credentials.
func (h *PasskeyHandler) DeleteCredential(c *gin.Context) {
	adminID, ok := readAdminIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if errDelete := h.svc.DeleteCredential(c.Request.Context(), adminID, c.Param("id")); errDelete != nil {
		writeAuthError(c, errDelete, "failed to delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
