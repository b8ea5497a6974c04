package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/dto"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// ProjectHandlerTestSuite drives the project, task and planning routes with
// an admin owner, an assignee and an unrelated user.
type ProjectHandlerTestSuite struct {
	suite.Suite
	env *apiEnv

	owner    *client
	assignee *client
	stranger *client
	project  dto.ProjectDTO
}

func (suite *ProjectHandlerTestSuite) SetupTest() {
	suite.env = newAPIEnv(suite.T(), access.DefaultPolicy())
	suite.owner = suite.env.signUp(suite.T(), "alice")
	suite.assignee = suite.env.signUp(suite.T(), "bob")
	suite.stranger = suite.env.signUp(suite.T(), "carol")

	w := suite.owner.do(http.MethodPost, "/api/projects", map[string]string{
		"name":        "Apollo",
		"description": "Moon landing",
		"due_date":    "2025-12-31",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.project = decode[dto.ProjectDTO](suite.T(), w)
}

func (suite *ProjectHandlerTestSuite) projectPath(suffix string) string {
	return "/api/projects/" + suite.project.ID + suffix
}

func (suite *ProjectHandlerTestSuite) addTask(body map[string]any) dto.TaskDTO {
	w := suite.owner.do(http.MethodPost, suite.projectPath("/tasks"), body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TaskDTO](suite.T(), w)
}

func (suite *ProjectHandlerTestSuite) TestCreateProject() {
	suite.Equal("Apollo", suite.project.Name)
	suite.Equal(suite.owner.user.ID, suite.project.OwnerID)
	suite.Equal(models.DefaultProjectStatus, suite.project.Status)
	suite.NotNil(suite.project.Tasks)
	suite.Empty(suite.project.Tasks)

	w := suite.assignee.do(http.MethodPost, "/api/projects", map[string]string{"name": "Gemini"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.owner.do(http.MethodPost, "/api/projects", map[string]string{"name": "Bad", "due_date": "tomorrow"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestTaskLifecycle() {
	task := suite.addTask(map[string]any{"name": "t1"})
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(suite.project.ID, task.ProjectID)

	w := suite.owner.do(http.MethodPatch, suite.projectPath("/tasks/"+task.ID+"/status"), map[string]string{"status": "Done"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(models.TaskStatusDone, decode[dto.TaskDTO](suite.T(), w).Status)

	w = suite.owner.do(http.MethodDelete, suite.projectPath("/tasks/"+task.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.owner.do(http.MethodGet, suite.projectPath("/tasks/"+task.ID), nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestInvalidTaskStatus() {
	task := suite.addTask(map[string]any{"name": "t1"})

	w := suite.owner.do(http.MethodPatch, suite.projectPath("/tasks/"+task.ID+"/status"), map[string]string{"status": "Someday"})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	body := decode[errorBody](suite.T(), w)
	suite.Equal(apierrors.ErrCodeInvalidStatus, body.Code)
	suite.Equal("status", body.Details["field"])
}

func (suite *ProjectHandlerTestSuite) TestVisibilityAndCapabilities() {
	task := suite.addTask(map[string]any{"name": "design", "assigned_to": suite.assignee.user.ID})

	suite.Equal(http.StatusOK, suite.assignee.do(http.MethodGet, suite.projectPath(""), nil).Code)
	suite.Equal(http.StatusForbidden, suite.stranger.do(http.MethodGet, suite.projectPath(""), nil).Code)

	w := suite.assignee.do(http.MethodGet, "/api/projects", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[map[string][]dto.ProjectListItemDTO](suite.T(), w)["projects"], 1)

	w = suite.stranger.do(http.MethodGet, "/api/projects", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Empty(decode[map[string][]dto.ProjectListItemDTO](suite.T(), w)["projects"])

	w = suite.assignee.do(http.MethodPatch, suite.projectPath(""), map[string]string{"status": "On Hold"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("On Hold", decode[dto.ProjectDTO](suite.T(), w).Status)

	w = suite.assignee.do(http.MethodPatch, suite.projectPath(""), map[string]string{"name": "Hijacked"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.assignee.do(http.MethodPatch, suite.projectPath("/tasks/"+task.ID+"/status"), map[string]string{"status": "In Progress"})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.assignee.do(http.MethodDelete, suite.projectPath("/tasks/"+task.ID), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.stranger.do(http.MethodPatch, suite.projectPath(""), map[string]string{"name": "x"})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.owner.do(http.MethodGet, suite.projectPath(""), nil)
	suite.Equal("Apollo", decode[dto.ProjectDTO](suite.T(), w).Name)
}

func (suite *ProjectHandlerTestSuite) TestMissingProject() {
	missing := "/api/projects/" + utils.NewID()

	suite.Equal(http.StatusForbidden, suite.stranger.do(http.MethodGet, missing, nil).Code)
	suite.Equal(http.StatusNotFound, suite.owner.do(http.MethodGet, missing, nil).Code)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProject() {
	w := suite.owner.do(http.MethodPatch, suite.projectPath(""), map[string]string{"name": "Apollo"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(noChangesMessage, decode[map[string]string](suite.T(), w)["message"])

	w = suite.owner.do(http.MethodPatch, suite.projectPath(""), map[string]string{"due_date": ""})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Nil(decode[dto.ProjectDTO](suite.T(), w).DueDate)

	w = suite.owner.do(http.MethodPatch, suite.projectPath(""), map[string]string{"name": "  "})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestTasksInDisplayOrder() {
	suite.addTask(map[string]any{"name": "undated"})
	suite.addTask(map[string]any{"name": "later", "due_date": "2025-09-01"})
	suite.addTask(map[string]any{"name": "sooner", "due_date": "2025-08-01"})

	w := suite.owner.do(http.MethodGet, suite.projectPath(""), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	tasks := decode[dto.ProjectDTO](suite.T(), w).Tasks
	suite.Require().Len(tasks, 3)
	suite.Equal("sooner", tasks[0].Name)
	suite.Equal("later", tasks[1].Name)
	suite.Equal("undated", tasks[2].Name)
}

func (suite *ProjectHandlerTestSuite) TestUpdateTask() {
	task := suite.addTask(map[string]any{"name": "draft", "assigned_to": suite.assignee.user.ID})

	w := suite.owner.do(http.MethodPut, suite.projectPath("/tasks/"+task.ID), map[string]string{
		"name":        "final",
		"assigned_to": "",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode[dto.TaskDTO](suite.T(), w)
	suite.Equal("final", updated.Name)
	suite.Nil(updated.AssignedTo)

	w = suite.owner.do(http.MethodPut, suite.projectPath("/tasks/"+task.ID), map[string]string{"assigned_to": utils.NewID()})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestPlanning() {
	w := suite.owner.do(http.MethodPost, suite.projectPath("/work-packages"), map[string]string{
		"name": "Phase 1", "start_date": "2025-01-01", "end_date": "2025-02-01",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	wp := decode[models.WorkPackage](suite.T(), w)

	task := suite.addTask(map[string]any{"name": "grouped", "work_package_id": wp.ID})
	suite.Require().NotNil(task.WorkPackageID)

	w = suite.owner.do(http.MethodPost, suite.projectPath("/milestones"), map[string]string{"name": "Launch"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.owner.do(http.MethodPost, suite.projectPath("/milestones"), map[string]string{"name": "Launch", "target_date": "2025-07-20"})
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.owner.do(http.MethodGet, suite.projectPath("/milestones"), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(decode[map[string][]models.Milestone](suite.T(), w)["milestones"], 1)

	w = suite.owner.do(http.MethodDelete, suite.projectPath("/work-packages/"+wp.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.owner.do(http.MethodGet, suite.projectPath("/tasks/"+task.ID), nil)
	suite.Nil(decode[dto.TaskDTO](suite.T(), w).WorkPackageID)

	w = suite.stranger.do(http.MethodGet, suite.projectPath("/work-packages"), nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestDashboard() {
	suite.addTask(map[string]any{"name": "assigned", "assigned_to": suite.assignee.user.ID, "due_date": "2025-03-01"})

	w := suite.assignee.do(http.MethodGet, "/api/dashboard", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	board := decode[dto.DashboardDTO](suite.T(), w)
	suite.Len(board.Projects, 1)
	suite.Empty(board.OwnedTasks)
	suite.Require().Len(board.AssignedTasks, 1)
	suite.Equal("Apollo", board.AssignedTasks[0].ProjectName)
}

func (suite *ProjectHandlerTestSuite) TestDeleteProject() {
	suite.Equal(http.StatusForbidden, suite.stranger.do(http.MethodDelete, suite.projectPath(""), nil).Code)
	suite.Equal(http.StatusOK, suite.owner.do(http.MethodDelete, suite.projectPath(""), nil).Code)

	w := suite.owner.do(http.MethodGet, suite.projectPath(""), nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(apierrors.ErrCodeNotFound, decode[errorBody](suite.T(), w).Code)
}

func TestProjectHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectHandlerTestSuite))
}
