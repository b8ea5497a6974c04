package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/access"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/middleware"
	"k8s.io/klog/v2"
)

const noChangesMessage = "No changes were detected"

// respondError writes err. A no-op update is not a failure and answers 200.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, apierrors.ErrNoChanges) {
		c.JSON(http.StatusOK, gin.H{"message": noChangesMessage})
		return
	}
	switch apierrors.KindOf(err) {
	case apierrors.KindInternal, apierrors.KindUnavailable:
		klog.ErrorS(err, "Request failed", "method", c.Request.Method, "path", c.FullPath())
	}
	apierrors.Respond(c, err)
}

// currentPrincipal returns the caller set by RequireAuth, answering 401
// when it is missing.
func currentPrincipal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return p, ok
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Calendar
// dates are taken as midnight UTC.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, apierrors.Validation(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

// parseOptionalDate treats an absent or blank value as no date.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	return parseDate(field, *value)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
