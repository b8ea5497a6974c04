package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"project_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Status        models.TaskStatus `json:"status"`
	DueDate       *time.Time        `json:"due_date"`
	CreatedBy     string            `json:"created_by"`
	AssignedTo    *string           `json:"assigned_to"`
	WorkPackageID *string           `json:"work_package_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ProjectDTO represents a project with its tasks in display order
type ProjectDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     string     `json:"owner_id"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Tasks       []TaskDTO  `json:"tasks"`
}

// ProjectListItemDTO represents a project in list responses
type ProjectListItemDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	OwnerID   string     `json:"owner_id"`
	Status    string     `json:"status"`
	DueDate   *time.Time `json:"due_date"`
	TaskCount int        `json:"task_count"`
	OpenTasks int        `json:"open_tasks"`
	CreatedAt time.Time  `json:"created_at"`
}

// TaskSummaryDTO is a dashboard task with its project's name
type TaskSummaryDTO struct {
	TaskDTO
	ProjectName string `json:"project_name"`
}

// DashboardDTO is the response of the dashboard endpoint
type DashboardDTO struct {
	Projects      []ProjectListItemDTO `json:"projects"`
	OwnedTasks    []TaskSummaryDTO     `json:"owned_tasks"`
	AssignedTasks []TaskSummaryDTO     `json:"assigned_tasks"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:            task.ID,
		ProjectID:     task.ProjectID,
		Name:          task.Name,
		Description:   task.Description,
		Status:        task.Status,
		DueDate:       task.DueDate,
		CreatedBy:     task.CreatedBy,
		AssignedTo:    task.AssignedTo,
		WorkPackageID: task.WorkPackageID,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}
}

// ToProjectDTO converts a project, sorting a copy of its tasks for display
func ToProjectDTO(project models.Project) ProjectDTO {
	tasks := append([]models.Task(nil), project.Tasks...)
	models.SortTasksForDisplay(tasks)

	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		Status:      project.Status,
		DueDate:     project.DueDate,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Tasks:       lo.Map(tasks, func(t models.Task, _ int) TaskDTO { return ToTaskDTO(t) }),
	}
}

// ToProjectListItemDTO converts a project to its list form
func ToProjectListItemDTO(project models.Project) ProjectListItemDTO {
	return ProjectListItemDTO{
		ID:        project.ID,
		Name:      project.Name,
		OwnerID:   project.OwnerID,
		Status:    project.Status,
		DueDate:   project.DueDate,
		TaskCount: len(project.Tasks),
		OpenTasks: lo.CountBy(project.Tasks, func(t models.Task) bool { return t.Status != models.TaskStatusDone }),
		CreatedAt: project.CreatedAt,
	}
}

func ToProjectList(projects []models.Project) []ProjectListItemDTO {
	return lo.Map(projects, func(p models.Project, _ int) ProjectListItemDTO { return ToProjectListItemDTO(p) })
}

func toTaskSummaries(summaries []repository.TaskSummary) []TaskSummaryDTO {
	return lo.Map(summaries, func(s repository.TaskSummary, _ int) TaskSummaryDTO {
		return TaskSummaryDTO{TaskDTO: ToTaskDTO(s.Task), ProjectName: s.ProjectName}
	})
}

// ToDashboardDTO converts the dashboard view
func ToDashboardDTO(d *services.Dashboard) DashboardDTO {
	return DashboardDTO{
		Projects:      ToProjectList(d.Projects),
		OwnedTasks:    toTaskSummaries(d.OwnedTasks),
		AssignedTasks: toTaskSummaries(d.AssignedTasks),
	}
}
