package services

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

var (
	ErrUnknownAssignee    = apierrors.Validation("assigned_to", "does not refer to an existing user")
	ErrUnknownWorkPackage = apierrors.Validation("work_package_id", "does not belong to this project")
)

// ProjectService handles projects and their embedded tasks. Every
// project-scoped call passes through the gate.
type ProjectService struct {
	gate      projectGate
	projects  repository.ProjectRepository
	planning  repository.PlanningRepository
	users     repository.UserRepository
	evaluator *access.Evaluator
	log       logr.Logger
}

// ProjectServiceConfig carries the collaborators of a ProjectService.
type ProjectServiceConfig struct {
	Projects      repository.ProjectRepository
	Planning      repository.PlanningRepository
	Users         repository.UserRepository
	Evaluator     *access.Evaluator
	RevealMissing bool
	Log           logr.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(cfg ProjectServiceConfig) *ProjectService {
	return &ProjectService{
		gate: projectGate{
			projects:      cfg.Projects,
			evaluator:     cfg.Evaluator,
			revealMissing: cfg.RevealMissing,
		},
		projects:  cfg.Projects,
		planning:  cfg.Planning,
		users:     cfg.Users,
		evaluator: cfg.Evaluator,
		log:       cfg.Log,
	}
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	Name        string
	Description string
	Status      string
	DueDate     *time.Time
}

// CreateProject creates a project owned by the caller.
func (s *ProjectService) CreateProject(ctx context.Context, p access.Principal, input CreateProjectInput) (*models.Project, error) {
	if err := s.evaluator.Authorize(p, nil, access.CreateProject, ""); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, p.UserID); err != nil {
		if errors.Is(err, apierrors.ErrNotFound) {
			return nil, apierrors.Validation("owner_id", "does not refer to an existing user")
		}
		return nil, err
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     p.UserID,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.log.Info("project created", "projectID", project.ID, "ownerID", project.OwnerID)
	return project, nil
}

// GetProject returns a project the caller may view.
func (s *ProjectService) GetProject(ctx context.Context, p access.Principal, id string) (*models.Project, error) {
	return s.gate.authorize(ctx, p, id, access.ViewProject, "")
}

// ListVisible returns the projects the caller owns or holds a task in.
func (s *ProjectService) ListVisible(ctx context.Context, p access.Principal) ([]models.Project, error) {
	return s.projects.ListVisibleTo(ctx, p.UserID)
}

// ListAll returns every project. Admin only.
func (s *ProjectService) ListAll(ctx context.Context, p access.Principal) ([]models.Project, error) {
	if !p.IsAdmin() {
		return nil, apierrors.Forbidden("")
	}
	return s.projects.ListAll(ctx)
}

// UpdateProject applies a partial update. A status-only change is open to
// assignees; anything else needs the owner. Returns ErrNoChanges when the
// project already held every supplied value.
func (s *ProjectService) UpdateProject(ctx context.Context, p access.Principal, id string, upd repository.ProjectUpdate) (*models.Project, error) {
	action := access.EditProject
	if upd.StatusOnly() {
		action = access.EditProjectStatus
	}
	if _, err := s.gate.authorize(ctx, p, id, action, ""); err != nil {
		return nil, err
	}

	res, err := s.projects.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if !res.Matched {
		return nil, apierrors.NotFound("project")
	}
	if !res.Modified {
		return nil, apierrors.ErrNoChanges
	}
	return s.projects.FindByID(ctx, id)
}

// DeleteProject removes a project with its tasks, then its work packages and
// milestones. A failed planning cleanup is logged; the project stays deleted.
func (s *ProjectService) DeleteProject(ctx context.Context, p access.Principal, id string) error {
	if _, err := s.gate.authorize(ctx, p, id, access.DeleteProject, ""); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.planning.DeleteByProject(ctx, id); err != nil {
		s.log.Error(err, "failed to delete planning records", "projectID", id)
	}
	s.log.Info("project deleted", "projectID", id, "actorID", p.UserID)
	return nil
}

// AddTask appends a task to the project.
func (s *ProjectService) AddTask(ctx context.Context, p access.Principal, projectID string, input repository.TaskInput) (*models.Task, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, projectID, input.AssignedTo, input.WorkPackageID); err != nil {
		return nil, err
	}
	return s.projects.AddTask(ctx, projectID, input, p.UserID)
}

// GetTask returns one task of a project the caller may view.
func (s *ProjectService) GetTask(ctx context.Context, p access.Principal, projectID, taskID string) (*models.Task, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ViewProject, ""); err != nil {
		return nil, err
	}
	return s.projects.FindTask(ctx, projectID, taskID)
}

// UpdateTask edits one task and returns its new state.
func (s *ProjectService) UpdateTask(ctx context.Context, p access.Principal, projectID, taskID string, upd repository.TaskUpdate) (*models.Task, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, projectID, upd.AssignedTo, upd.WorkPackageID); err != nil {
		return nil, err
	}
	if err := s.projects.UpdateTask(ctx, projectID, taskID, upd); err != nil {
		return nil, err
	}
	return s.projects.FindTask(ctx, projectID, taskID)
}

// UpdateTaskStatus sets one task's status.
func (s *ProjectService) UpdateTaskStatus(ctx context.Context, p access.Principal, projectID, taskID string, status models.TaskStatus) (*models.Task, error) {
	if err := repository.ValidateTaskStatus(status); err != nil {
		return nil, err
	}
	if _, err := s.gate.authorize(ctx, p, projectID, access.UpdateTaskStatus, taskID); err != nil {
		return nil, err
	}
	if err := s.projects.UpdateTaskStatus(ctx, projectID, taskID, status); err != nil {
		return nil, err
	}
	return s.projects.FindTask(ctx, projectID, taskID)
}

// DeleteTask removes one task.
func (s *ProjectService) DeleteTask(ctx context.Context, p access.Principal, projectID, taskID string) error {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return err
	}
	return s.projects.DeleteTask(ctx, projectID, taskID)
}

// checkRefs verifies that an assignee exists and that a work package belongs
// to the project. Empty references clear the field and are always accepted.
func (s *ProjectService) checkRefs(ctx context.Context, projectID string, assignee, workPackageID *string) error {
	if assignee != nil && *assignee != "" {
		if _, err := s.users.FindByID(ctx, *assignee); err != nil {
			if errors.Is(err, apierrors.ErrNotFound) {
				return ErrUnknownAssignee
			}
			return err
		}
	}
	if workPackageID != nil && *workPackageID != "" {
		if _, err := s.planning.FindWorkPackage(ctx, projectID, *workPackageID); err != nil {
			if errors.Is(err, apierrors.ErrNotFound) {
				return ErrUnknownWorkPackage
			}
			return err
		}
	}
	return nil
}

// Dashboard is the caller's landing view.
type Dashboard struct {
	Projects      []models.Project         `json:"projects"`
	OwnedTasks    []repository.TaskSummary `json:"owned_tasks"`
	AssignedTasks []repository.TaskSummary `json:"assigned_tasks"`
}

// Dashboard collects the visible projects and the open tasks due next, both
// in projects the caller owns and assigned to the caller.
func (s *ProjectService) Dashboard(ctx context.Context, p access.Principal) (*Dashboard, error) {
	projects, err := s.projects.ListVisibleTo(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	owned, err := s.projects.UpcomingTasks(ctx, repository.UpcomingFilter{
		OwnerID: p.UserID,
		Limit:   constants.DashboardTaskLimit,
	})
	if err != nil {
		return nil, err
	}
	assigned, err := s.projects.UpcomingTasks(ctx, repository.UpcomingFilter{
		AssigneeID: p.UserID,
		Limit:      constants.DashboardTaskLimit,
	})
	if err != nil {
		return nil, err
	}
	return &Dashboard{Projects: projects, OwnedTasks: owned, AssignedTasks: assigned}, nil
}
