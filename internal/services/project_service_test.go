package services

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/pandora-pm/internal/access"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

type ProjectServiceTestSuite struct {
	suite.Suite
	env *testEnv
	ctx context.Context

	admin    access.Principal
	owner    access.Principal
	assignee access.Principal
	stranger access.Principal
}

func (suite *ProjectServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T(), access.DefaultPolicy(), false)
	suite.ctx = context.Background()

	suite.admin = suite.env.addUser(suite.T(), "alice", models.RoleAdmin)
	suite.owner = suite.env.addUser(suite.T(), "bob", models.RoleUser)
	suite.assignee = suite.env.addUser(suite.T(), "carol", models.RoleUser)
	suite.stranger = suite.env.addUser(suite.T(), "dave", models.RoleUser)
}

// newProject creates a project owned by suite.owner. Creation is admin-only
// under the default policy, so the row is inserted through the store.
func (suite *ProjectServiceTestSuite) newProject(name string) *models.Project {
	project := &models.Project{Name: name, OwnerID: suite.owner.UserID}
	suite.Require().NoError(suite.env.projects.Create(suite.ctx, project))
	return project
}

func (suite *ProjectServiceTestSuite) TestCreateProject_AdminOnlyByDefault() {
	_, err := suite.env.projectSvc.CreateProject(suite.ctx, suite.owner, CreateProjectInput{Name: "Apollo"})
	suite.ErrorIs(err, apierrors.ErrForbidden)

	project, err := suite.env.projectSvc.CreateProject(suite.ctx, suite.admin, CreateProjectInput{Name: " Apollo "})
	suite.Require().NoError(err)
	suite.Equal("Apollo", project.Name)
	suite.Equal(suite.admin.UserID, project.OwnerID)
	suite.Equal(models.DefaultProjectStatus, project.Status)
	suite.Empty(project.Tasks)
}

func (suite *ProjectServiceTestSuite) TestCreateProject_OpenCreation() {
	env := newTestEnv(suite.T(), access.Policy{StrictAssignee: true, OpenProjectCreation: true}, false)
	user := env.addUser(suite.T(), "erin", models.RoleUser)

	project, err := env.projectSvc.CreateProject(suite.ctx, user, CreateProjectInput{Name: "Gemini"})
	suite.Require().NoError(err)
	suite.Equal(user.UserID, project.OwnerID)
}

func (suite *ProjectServiceTestSuite) TestCreateProject_UnknownOwner() {
	ghost := access.Principal{UserID: utils.NewID(), Role: models.RoleAdmin}
	_, err := suite.env.projectSvc.CreateProject(suite.ctx, ghost, CreateProjectInput{Name: "Ghost"})
	suite.ErrorIs(err, apierrors.ErrValidation)
}

func (suite *ProjectServiceTestSuite) TestTaskLifecycle() {
	project := suite.newProject("Lifecycle")

	task, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{Name: "t1"})
	suite.Require().NoError(err)

	got, err := suite.env.projectSvc.GetTask(suite.ctx, suite.owner, project.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, got.Status)

	got, err = suite.env.projectSvc.UpdateTaskStatus(suite.ctx, suite.owner, project.ID, task.ID, models.TaskStatusDone)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, got.Status)

	suite.Require().NoError(suite.env.projectSvc.DeleteTask(suite.ctx, suite.owner, project.ID, task.ID))

	_, err = suite.env.projectSvc.GetTask(suite.ctx, suite.owner, project.ID, task.ID)
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_StrangerForbidden() {
	project := suite.newProject("Original")

	_, err := suite.env.projectSvc.UpdateProject(suite.ctx, suite.stranger, project.ID, repository.ProjectUpdate{Name: ptr("x")})
	suite.ErrorIs(err, apierrors.ErrForbidden)

	reloaded, err := suite.env.projects.FindByID(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Equal("Original", reloaded.Name)
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_AssigneeStatusOnly() {
	project := suite.newProject("Shared")
	_, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:       "design",
		AssignedTo: ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)

	updated, err := suite.env.projectSvc.UpdateProject(suite.ctx, suite.assignee, project.ID, repository.ProjectUpdate{Status: ptr("On Hold")})
	suite.Require().NoError(err)
	suite.Equal("On Hold", updated.Status)

	_, err = suite.env.projectSvc.UpdateProject(suite.ctx, suite.assignee, project.ID, repository.ProjectUpdate{Name: ptr("Renamed")})
	suite.ErrorIs(err, apierrors.ErrForbidden)
}

func (suite *ProjectServiceTestSuite) TestUpdateProject_NoChanges() {
	project := suite.newProject("Same")

	_, err := suite.env.projectSvc.UpdateProject(suite.ctx, suite.owner, project.ID, repository.ProjectUpdate{Name: ptr("Same")})
	suite.ErrorIs(err, apierrors.ErrNoChanges)

	updated, err := suite.env.projectSvc.UpdateProject(suite.ctx, suite.owner, project.ID, repository.ProjectUpdate{Name: ptr("Different")})
	suite.Require().NoError(err)
	suite.Equal("Different", updated.Name)
}

func (suite *ProjectServiceTestSuite) TestDenyBeforeReveal() {
	missing := utils.NewID()

	_, err := suite.env.projectSvc.GetProject(suite.ctx, suite.stranger, missing)
	suite.ErrorIs(err, apierrors.ErrForbidden)

	_, err = suite.env.projectSvc.GetProject(suite.ctx, suite.stranger, "not-an-id")
	suite.ErrorIs(err, apierrors.ErrForbidden)

	_, err = suite.env.projectSvc.GetProject(suite.ctx, suite.admin, missing)
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestRevealMissing() {
	env := newTestEnv(suite.T(), access.DefaultPolicy(), true)
	user := env.addUser(suite.T(), "erin", models.RoleUser)

	_, err := env.projectSvc.GetProject(suite.ctx, user, utils.NewID())
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestUpdateTaskStatus_StrictAssignee() {
	project := suite.newProject("Strict")
	mine, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:       "mine",
		AssignedTo: ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)
	other, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{Name: "other"})
	suite.Require().NoError(err)

	_, err = suite.env.projectSvc.UpdateTaskStatus(suite.ctx, suite.assignee, project.ID, mine.ID, models.TaskStatusInProgress)
	suite.NoError(err)

	_, err = suite.env.projectSvc.UpdateTaskStatus(suite.ctx, suite.assignee, project.ID, other.ID, models.TaskStatusInProgress)
	suite.ErrorIs(err, apierrors.ErrForbidden)

	_, err = suite.env.projectSvc.UpdateTaskStatus(suite.ctx, suite.owner, project.ID, other.ID, "Someday")
	suite.ErrorIs(err, apierrors.ErrValidation)
}

func (suite *ProjectServiceTestSuite) TestAssigneeCannotManageTasks() {
	project := suite.newProject("Managed")
	task, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:       "mine",
		AssignedTo: ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)

	_, err = suite.env.projectSvc.AddTask(suite.ctx, suite.assignee, project.ID, repository.TaskInput{Name: "extra"})
	suite.ErrorIs(err, apierrors.ErrForbidden)

	_, err = suite.env.projectSvc.UpdateTask(suite.ctx, suite.assignee, project.ID, task.ID, repository.TaskUpdate{Name: ptr("renamed")})
	suite.ErrorIs(err, apierrors.ErrForbidden)

	suite.ErrorIs(suite.env.projectSvc.DeleteTask(suite.ctx, suite.assignee, project.ID, task.ID), apierrors.ErrForbidden)

	got, err := suite.env.projectSvc.GetTask(suite.ctx, suite.assignee, project.ID, task.ID)
	suite.Require().NoError(err)
	suite.Equal("mine", got.Name)
}

func (suite *ProjectServiceTestSuite) TestTaskReferences() {
	project := suite.newProject("Refs")

	_, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:       "orphan",
		AssignedTo: ptr(utils.NewID()),
	})
	suite.ErrorIs(err, ErrUnknownAssignee)

	otherProject := suite.newProject("Other")
	wp, err := suite.env.planningSvc.CreateWorkPackage(suite.ctx, suite.owner, otherProject.ID, WorkPackageInput{Name: "Phase 1"})
	suite.Require().NoError(err)

	_, err = suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:          "misplaced",
		WorkPackageID: ptr(wp.ID),
	})
	suite.ErrorIs(err, ErrUnknownWorkPackage)

	task, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, otherProject.ID, repository.TaskInput{
		Name:          "placed",
		WorkPackageID: ptr(wp.ID),
		AssignedTo:    ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)

	updated, err := suite.env.projectSvc.UpdateTask(suite.ctx, suite.owner, otherProject.ID, task.ID, repository.TaskUpdate{AssignedTo: ptr("")})
	suite.Require().NoError(err)
	suite.Nil(updated.AssignedTo)
	suite.Require().NotNil(updated.WorkPackageID)
	suite.Equal(wp.ID, *updated.WorkPackageID)
}

func (suite *ProjectServiceTestSuite) TestDeleteProject_CascadesPlanning() {
	project := suite.newProject("Doomed")
	_, err := suite.env.planningSvc.CreateWorkPackage(suite.ctx, suite.owner, project.ID, WorkPackageInput{Name: "Phase"})
	suite.Require().NoError(err)
	_, err = suite.env.planningSvc.CreateMilestone(suite.ctx, suite.owner, project.ID, MilestoneInput{Name: "Launch", TargetDate: ptr(time.Now().Add(24 * time.Hour))})
	suite.Require().NoError(err)

	suite.ErrorIs(suite.env.projectSvc.DeleteProject(suite.ctx, suite.stranger, project.ID), apierrors.ErrForbidden)
	suite.Require().NoError(suite.env.projectSvc.DeleteProject(suite.ctx, suite.owner, project.ID))

	wps, err := suite.env.planning.ListWorkPackages(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Empty(wps)
	milestones, err := suite.env.planning.ListMilestones(suite.ctx, project.ID)
	suite.Require().NoError(err)
	suite.Empty(milestones)

	_, err = suite.env.projectSvc.GetProject(suite.ctx, suite.admin, project.ID)
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestListVisibleAndListAll() {
	p1 := suite.newProject("P1")
	_, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, p1.ID, repository.TaskInput{
		Name:       "shared",
		AssignedTo: ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)
	p2 := &models.Project{Name: "P2", OwnerID: suite.assignee.UserID}
	suite.Require().NoError(suite.env.projects.Create(suite.ctx, p2))

	visible, err := suite.env.projectSvc.ListVisible(suite.ctx, suite.assignee)
	suite.Require().NoError(err)
	suite.ElementsMatch([]string{p1.ID, p2.ID}, projectIDs(visible))

	visible, err = suite.env.projectSvc.ListVisible(suite.ctx, suite.stranger)
	suite.Require().NoError(err)
	suite.Empty(visible)

	_, err = suite.env.projectSvc.ListAll(suite.ctx, suite.owner)
	suite.ErrorIs(err, apierrors.ErrForbidden)

	all, err := suite.env.projectSvc.ListAll(suite.ctx, suite.admin)
	suite.Require().NoError(err)
	suite.Len(all, 2)
}

func (suite *ProjectServiceTestSuite) TestDashboard() {
	project := suite.newProject("Board")
	soon := time.Now().Add(time.Hour)
	_, err := suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:       "assigned",
		DueDate:    &soon,
		AssignedTo: ptr(suite.assignee.UserID),
	})
	suite.Require().NoError(err)
	_, err = suite.env.projectSvc.AddTask(suite.ctx, suite.owner, project.ID, repository.TaskInput{
		Name:   "finished",
		Status: models.TaskStatusDone,
	})
	suite.Require().NoError(err)

	board, err := suite.env.projectSvc.Dashboard(suite.ctx, suite.owner)
	suite.Require().NoError(err)
	suite.Len(board.Projects, 1)
	suite.Require().Len(board.OwnedTasks, 1)
	suite.Equal("assigned", board.OwnedTasks[0].Name)
	suite.Equal("Board", board.OwnedTasks[0].ProjectName)
	suite.Empty(board.AssignedTasks)

	board, err = suite.env.projectSvc.Dashboard(suite.ctx, suite.assignee)
	suite.Require().NoError(err)
	suite.Len(board.Projects, 1)
	suite.Empty(board.OwnedTasks)
	suite.Len(board.AssignedTasks, 1)
}

func projectIDs(projects []models.Project) []string {
	return lo.Map(projects, func(p models.Project, _ int) string { return p.ID })
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}
