package repository

import (
	"context"
	"time"

	"github.com/yukikurage/pandora-pm/internal/models"
)

// UpdateResult distinguishes a missing target from an update that matched
// but left every field as it was.
type UpdateResult struct {
	Matched  bool
	Modified bool
}

// ProjectRepository is the project document store. Task mutations address a
// single task by (project id, task id) and never rewrite the collection.
type ProjectRepository interface {
	// Create inserts a project with an empty task collection.
	Create(ctx context.Context, project *models.Project) error

	// FindByID returns the project with its tasks in append order.
	FindByID(ctx context.Context, id string) (*models.Project, error)

	// Update applies the supplied fields and always refreshes updated_at.
	Update(ctx context.Context, id string, upd ProjectUpdate) (UpdateResult, error)

	// Delete removes the project and all of its tasks.
	Delete(ctx context.Context, id string) error

	// AddTask appends a new task to the project.
	AddTask(ctx context.Context, projectID string, in TaskInput, creatorID string) (*models.Task, error)

	// FindTask returns one task matched by both ids.
	FindTask(ctx context.Context, projectID, taskID string) (*models.Task, error)

	// UpdateTask changes the supplied fields of one task.
	UpdateTask(ctx context.Context, projectID, taskID string, upd TaskUpdate) error

	// UpdateTaskStatus sets the status of one task.
	UpdateTaskStatus(ctx context.Context, projectID, taskID string, status models.TaskStatus) error

	// DeleteTask removes one task, leaving its siblings untouched.
	DeleteTask(ctx context.Context, projectID, taskID string) error

	// ListVisibleTo returns projects owned by userID or holding at least one
	// task assigned to userID, newest first.
	ListVisibleTo(ctx context.Context, userID string) ([]models.Project, error)

	// ListAll returns every project, newest first.
	ListAll(ctx context.Context) ([]models.Project, error)

	// UpcomingTasks lists open tasks for the dashboard.
	UpcomingTasks(ctx context.Context, filter UpcomingFilter) ([]TaskSummary, error)

	// UnassignUser clears assigned_to on every task assigned to userID.
	UnassignUser(ctx context.Context, userID string) (int64, error)

	// DetachWorkPackage clears work_package_id on the project's tasks that
	// reference the work package.
	DetachWorkPackage(ctx context.Context, projectID, workPackageID string) (int64, error)

	// Stats counts projects and tasks.
	Stats(ctx context.Context) (ProjectStats, error)
}

// UserRepository is the identity store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByUsername matches case-insensitively.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail matches the lower-cased address.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns users ordered by username together with the total count.
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)

	Update(ctx context.Context, id string, upd UserUpdate) (UpdateResult, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}

// PlanningRepository stores work packages and milestones.
type PlanningRepository interface {
	CreateWorkPackage(ctx context.Context, wp *models.WorkPackage) error
	FindWorkPackage(ctx context.Context, projectID, id string) (*models.WorkPackage, error)
	ListWorkPackages(ctx context.Context, projectID string) ([]models.WorkPackage, error)
	DeleteWorkPackage(ctx context.Context, projectID, id string) error

	CreateMilestone(ctx context.Context, m *models.Milestone) error

	// ListMilestones returns milestones newest target date first.
	ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error)
	DeleteMilestone(ctx context.Context, projectID, id string) error

	// DeleteByProject removes every work package and milestone of a project.
	DeleteByProject(ctx context.Context, projectID string) error
}

// UpcomingFilter selects dashboard tasks. Exactly one of OwnerID and
// AssigneeID is expected to be set.
type UpcomingFilter struct {
	OwnerID    string
	AssigneeID string
	Limit      int
}

// TaskSummary is a task flattened together with its project's name.
type TaskSummary struct {
	models.Task
	ProjectName string `json:"project_name"`
}

type ProjectStats struct {
	Projects int64 `json:"projects"`
	Tasks    int64 `json:"tasks"`
}

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Name          string
	Description   string
	Status        models.TaskStatus
	DueDate       *time.Time
	AssignedTo    *string
	WorkPackageID *string
}
