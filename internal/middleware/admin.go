package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
)

// RequireAdmin rejects callers without the admin role. It must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !p.IsAdmin() {
			apierrors.RespondForbidden(c, "Administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
