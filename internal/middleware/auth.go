package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"k8s.io/klog/v2"
)

// RequireAuth resolves the session's user id against the identity store.
// The role is read fresh on every request so a demotion takes effect at once.
func RequireAuth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(constants.SessionKeyUserID).(string)
		if !ok || userID == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apierrors.ErrNotFound) {
				session.Clear()
				if err := session.Save(); err != nil {
					klog.ErrorS(err, "Failed to clear stale session", "userID", userID)
				}
				apierrors.Unauthorized(c, "")
			} else {
				apierrors.Respond(c, err)
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyPrincipal, access.Principal{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated caller from context
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

// GetUser retrieves the authenticated user record from context
func GetUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(constants.ContextKeyUserID)
	return id, id != ""
}
