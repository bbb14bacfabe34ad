package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
	"github.com/linkcapture/console/internal/http/api/admin/handlers"
)

// RouteParams carries the dependencies of the admin API.
type RouteParams struct {
	Service *auth.Service
	Health  handlers.Pinger
	Cookie  handlers.CookieConfig
	// LoginLimiter guards PIN login. Nil disables limiting.
	LoginLimiter gin.HandlerFunc
}

// RegisterAdminRoutes registers the authentication and credential
// management routes under /api/auth, plus /healthz.
func RegisterAdminRoutes(r *gin.Engine, params RouteParams) {
	if r == nil || params.Service == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(params.Health)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/auth")

	authHandler := handlers.NewAuthHandler(params.Service, params.Cookie)
	if params.LoginLimiter != nil {
		api.POST("/login", params.LoginLimiter, authHandler.Login)
	} else {
		api.POST("/login", authHandler.Login)
	}
	api.POST("/logout", authHandler.Logout)
	api.GET("/session", authHandler.Session)

	passkeyHandler := handlers.NewPasskeyHandler(params.Service, params.Cookie)
	api.GET("/webauthn/authenticate/options", passkeyHandler.AuthenticationOptions)
	api.POST("/webauthn/authenticate/verify", passkeyHandler.AuthenticationVerify)

	authed := api.Group("")
	authed.Use(adminSessionMiddleware(params.Service))
	authed.GET("/webauthn/register/options", passkeyHandler.RegistrationOptions)
	authed.POST("/webauthn/register/verify", passkeyHandler.RegistrationVerify)
	authed.GET("/webauthn/credentials", passkeyHandler.ListCredentials)
	authed.DELETE("/webauthn/credentials/:id", passkeyHandler.DeleteCredential)
}
