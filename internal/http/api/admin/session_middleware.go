package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkcapture/console/internal/auth"
	"github.com/linkcapture/console/internal/http/api/admin/handlers"
)

// adminSessionMiddleware requires a valid session cookie and stores the
// admin ID in the gin context.
func adminSessionMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		adminID, ok := handlers.SessionAdminID(c, svc)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(handlers.ContextAdminID, adminID)
		c.Next()
	}
}
