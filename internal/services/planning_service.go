package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-logr/logr"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

// PlanningService manages work packages and milestones. Reads follow the
// project's view rule, writes the task management rule.
type PlanningService struct {
	gate     projectGate
	projects repository.ProjectRepository
	planning repository.PlanningRepository
	log      logr.Logger
}

// NewPlanningService creates a new PlanningService.
func NewPlanningService(projects repository.ProjectRepository, planning repository.PlanningRepository, evaluator *access.Evaluator, revealMissing bool, log logr.Logger) *PlanningService {
	return &PlanningService{
		gate: projectGate{
			projects:      projects,
			evaluator:     evaluator,
			revealMissing: revealMissing,
		},
		projects: projects,
		planning: planning,
		log:      log,
	}
}

type WorkPackageInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

func (s *PlanningService) CreateWorkPackage(ctx context.Context, p access.Principal, projectID string, input WorkPackageInput) (*models.WorkPackage, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return nil, err
	}
	name, err := planningName(input.Name, constants.MaxWorkPackageNameLength)
	if err != nil {
		return nil, err
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, apierrors.Validation("end_date", "must not be before start_date")
	}

	wp := &models.WorkPackage{
		ProjectID:   projectID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   p.UserID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}
	if err := s.planning.CreateWorkPackage(ctx, wp); err != nil {
		return nil, err
	}
	return wp, nil
}

func (s *PlanningService) ListWorkPackages(ctx context.Context, p access.Principal, projectID string) ([]models.WorkPackage, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ViewProject, ""); err != nil {
		return nil, err
	}
	return s.planning.ListWorkPackages(ctx, projectID)
}

// DeleteWorkPackage removes a work package and detaches the tasks that
// referenced it.
func (s *PlanningService) DeleteWorkPackage(ctx context.Context, p access.Principal, projectID, id string) error {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return err
	}
	if err := s.planning.DeleteWorkPackage(ctx, projectID, id); err != nil {
		return err
	}
	detached, err := s.projects.DetachWorkPackage(ctx, projectID, id)
	if err != nil {
		s.log.Error(err, "failed to detach tasks from deleted work package", "projectID", projectID, "workPackageID", id)
		return nil
	}
	s.log.V(1).Info("work package deleted", "projectID", projectID, "workPackageID", id, "detached", detached)
	return nil
}

type MilestoneInput struct {
	Name        string
	Description string
	TargetDate  *time.Time
}

func (s *PlanningService) CreateMilestone(ctx context.Context, p access.Principal, projectID string, input MilestoneInput) (*models.Milestone, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return nil, err
	}
	name, err := planningName(input.Name, constants.MaxMilestoneNameLength)
	if err != nil {
		return nil, err
	}
	if input.TargetDate == nil || input.TargetDate.IsZero() {
		return nil, apierrors.Validation("target_date", "is required")
	}

	m := &models.Milestone{
		ProjectID:   projectID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		TargetDate:  *input.TargetDate,
		CreatedBy:   p.UserID,
	}
	if err := s.planning.CreateMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PlanningService) ListMilestones(ctx context.Context, p access.Principal, projectID string) ([]models.Milestone, error) {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ViewProject, ""); err != nil {
		return nil, err
	}
	return s.planning.ListMilestones(ctx, projectID)
}

func (s *PlanningService) DeleteMilestone(ctx context.Context, p access.Principal, projectID, id string) error {
	if _, err := s.gate.authorize(ctx, p, projectID, access.ManageTasks, ""); err != nil {
		return err
	}
	return s.planning.DeleteMilestone(ctx, projectID, id)
}

func planningName(raw string, max int) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apierrors.Validation("name", "is required")
	}
	if utf8.RuneCountInString(name) > max {
		return "", apierrors.Validation("name", "is too long")
	}
	return name, nil
}
