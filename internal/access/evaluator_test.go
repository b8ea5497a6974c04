package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
)

const (
	adminID    = "admin"
	ownerID    = "owner"
	assigneeID = "assignee"
	strangerID = "stranger"
)

func fixture() (*models.Project, map[Relation]Principal) {
	assignee := assigneeID
	project := &models.Project{
		ID:      "p1",
		OwnerID: ownerID,
		Tasks: []models.Task{
			{ID: "mine", AssignedTo: &assignee},
			{ID: "theirs"},
		},
	}
	principals := map[Relation]Principal{
		RelationAdmin:    {UserID: adminID, Role: models.RoleAdmin},
		RelationOwner:    {UserID: ownerID, Role: models.RoleUser},
		RelationAssignee: {UserID: assigneeID, Role: models.RoleUser},
		RelationNone:     {UserID: strangerID, Role: models.RoleUser},
	}
	return project, principals
}

func TestRelationTo(t *testing.T) {
	project, principals := fixture()
	e := NewEvaluator(DefaultPolicy())

	for want, p := range principals {
		assert.Equal(t, want, e.RelationTo(p, project), want.String())
	}

	// an admin who also owns the project still ranks as admin
	adminOwner := Principal{UserID: ownerID, Role: models.RoleAdmin}
	assert.Equal(t, RelationAdmin, e.RelationTo(adminOwner, project))
}

func TestDecisionTable(t *testing.T) {
	project, principals := fixture()
	e := NewEvaluator(DefaultPolicy())

	type row struct {
		action Action
		taskID string
		want   map[Relation]bool
	}
	table := []row{
		{ViewProject, "", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: true, RelationNone: false}},
		{EditProject, "", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: false, RelationNone: false}},
		{EditProjectStatus, "", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: true, RelationNone: false}},
		{DeleteProject, "", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: false, RelationNone: false}},
		{ManageTasks, "", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: false, RelationNone: false}},
		{UpdateTaskStatus, "mine", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: true, RelationNone: false}},
		{UpdateTaskStatus, "theirs", map[Relation]bool{RelationAdmin: true, RelationOwner: true, RelationAssignee: false, RelationNone: false}},
		{ManageUsers, "", map[Relation]bool{RelationAdmin: true, RelationOwner: false, RelationAssignee: false, RelationNone: false}},
		{CreateProject, "", map[Relation]bool{RelationAdmin: true, RelationOwner: false, RelationAssignee: false, RelationNone: false}},
	}

	for _, r := range table {
		for rel, want := range r.want {
			got := e.Allowed(principals[rel], project, r.action, r.taskID)
			assert.Equal(t, want, got, "%s/%s task=%q", r.action, rel, r.taskID)
		}
	}
}

func TestLooseAssigneeMayUpdateAnyTaskStatus(t *testing.T) {
	project, principals := fixture()
	e := NewEvaluator(Policy{StrictAssignee: false})

	assert.True(t, e.Allowed(principals[RelationAssignee], project, UpdateTaskStatus, "theirs"))
	assert.False(t, e.Allowed(principals[RelationNone], project, UpdateTaskStatus, "theirs"))
}

func TestOpenProjectCreation(t *testing.T) {
	e := NewEvaluator(Policy{StrictAssignee: true, OpenProjectCreation: true})

	assert.True(t, e.Allowed(Principal{UserID: strangerID, Role: models.RoleUser}, nil, CreateProject, ""))
	assert.False(t, e.Allowed(Principal{}, nil, CreateProject, ""))
}

func TestUnknownTaskIsDeniedForAssignee(t *testing.T) {
	project, principals := fixture()
	e := NewEvaluator(DefaultPolicy())

	assert.False(t, e.Allowed(principals[RelationAssignee], project, UpdateTaskStatus, "ghost"))
}

func TestNilProjectDeniesProjectActions(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	assert.False(t, e.Allowed(Principal{UserID: ownerID}, nil, ViewProject, ""))
	assert.True(t, e.Allowed(Principal{UserID: adminID, Role: models.RoleAdmin}, nil, ViewProject, ""))
}

func TestAuthorize(t *testing.T) {
	project, principals := fixture()
	e := NewEvaluator(DefaultPolicy())

	assert.NoError(t, e.Authorize(principals[RelationOwner], project, EditProject, ""))
	assert.ErrorIs(t, e.Authorize(principals[RelationNone], project, ViewProject, ""), apierrors.ErrForbidden)
}
