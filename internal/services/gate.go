package services

import (
	"context"
	"errors"

	"github.com/yukikurage/pandora-pm/internal/access"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

// projectGate is the single authorization point for project-scoped actions.
type projectGate struct {
	projects      repository.ProjectRepository
	evaluator     *access.Evaluator
	revealMissing bool
}

// authorize loads the project and checks the action against it. Non-admins
// asking for a project that does not exist are told they are forbidden
// unless revealMissing is set, so ids cannot be probed.
func (g projectGate) authorize(ctx context.Context, p access.Principal, projectID string, action access.Action, taskID string) (*models.Project, error) {
	project, err := g.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, apierrors.ErrNotFound) && !p.IsAdmin() && !g.revealMissing {
			return nil, apierrors.Forbidden("")
		}
		return nil, err
	}
	if err := g.evaluator.Authorize(p, project, action, taskID); err != nil {
		return nil, err
	}
	return project, nil
}
