// Package access decides what a principal may do with a project. It performs
// no I/O: callers load the project and pass it in.
package access

import (
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
)

// Principal is the authenticated caller as resolved from the session.
type Principal struct {
	UserID string
	Role   models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Relation is the strongest tie between a principal and a project.
type Relation int

const (
	RelationNone Relation = iota
	RelationAssignee
	RelationOwner
	RelationAdmin
)

func (r Relation) String() string {
	switch r {
	case RelationAdmin:
		return "admin"
	case RelationOwner:
		return "owner"
	case RelationAssignee:
		return "assignee"
	default:
		return "none"
	}
}

type Action string

const (
	ViewProject       Action = "view_project"
	EditProject       Action = "edit_project"
	EditProjectStatus Action = "edit_project_status"
	DeleteProject     Action = "delete_project"
	ManageTasks       Action = "manage_tasks"
	UpdateTaskStatus  Action = "update_task_status"
	CreateProject     Action = "create_project"
	ManageUsers       Action = "manage_users"
)

// Policy holds the deployment switches of the decision table.
type Policy struct {
	// StrictAssignee limits an assignee's status updates to tasks assigned to
	// them. When false any assignee of the project may update any task status.
	StrictAssignee bool

	// OpenProjectCreation lets every authenticated user create projects.
	OpenProjectCreation bool
}

func DefaultPolicy() Policy {
	return Policy{StrictAssignee: true}
}

type Evaluator struct {
	policy Policy
}

func NewEvaluator(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

func (e *Evaluator) Policy() Policy {
	return e.policy
}

// RelationTo ranks the principal against the project: admin, then owner,
// then assignee of at least one task.
func (e *Evaluator) RelationTo(p Principal, project *models.Project) Relation {
	switch {
	case p.IsAdmin():
		return RelationAdmin
	case project == nil:
		return RelationNone
	case project.OwnerID == p.UserID:
		return RelationOwner
	case project.HasAssignee(p.UserID):
		return RelationAssignee
	default:
		return RelationNone
	}
}

// Allowed evaluates one action. project may be nil for global actions; taskID
// is only consulted for UpdateTaskStatus.
func (e *Evaluator) Allowed(p Principal, project *models.Project, action Action, taskID string) bool {
	switch action {
	case CreateProject:
		return p.IsAdmin() || (e.policy.OpenProjectCreation && p.UserID != "")
	case ManageUsers:
		return p.IsAdmin()
	}

	rel := e.RelationTo(p, project)
	switch action {
	case ViewProject, EditProjectStatus:
		return rel >= RelationAssignee
	case EditProject, DeleteProject, ManageTasks:
		return rel >= RelationOwner
	case UpdateTaskStatus:
		if rel >= RelationOwner {
			return true
		}
		if rel != RelationAssignee {
			return false
		}
		if !e.policy.StrictAssignee {
			return true
		}
		task := project.FindTask(taskID)
		return task != nil && task.IsAssignedTo(p.UserID)
	default:
		return false
	}
}

// Authorize is Allowed returning a Forbidden error on denial.
func (e *Evaluator) Authorize(p Principal, project *models.Project, action Action, taskID string) error {
	if e.Allowed(p, project, action, taskID) {
		return nil
	}
	return apierrors.Forbidden("you do not have permission to perform this action")
}
