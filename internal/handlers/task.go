package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/dto"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/services"
)

// TaskHandler serves the tasks embedded in a project
type TaskHandler struct {
	projects *services.ProjectService
}

func NewTaskHandler(projects *services.ProjectService) *TaskHandler {
	return &TaskHandler{projects: projects}
}

// CreateTask appends a task to the project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Name          string            `json:"name" binding:"required"`
		Description   string            `json:"description"`
		Status        models.TaskStatus `json:"status"`
		DueDate       *string           `json:"due_date"`
		AssignedTo    *string           `json:"assigned_to"`
		WorkPackageID *string           `json:"work_package_id"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.projects.AddTask(c.Request.Context(), p, c.Param("id"), repository.TaskInput{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		DueDate:       dueDate,
		AssignedTo:    req.AssignedTo,
		WorkPackageID: req.WorkPackageID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns one task
func (h *TaskHandler) GetTask(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	task, err := h.projects.GetTask(c.Request.Context(), p, c.Param("id"), c.Param("task_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask edits one task. Empty strings clear due_date, assigned_to and
// work_package_id.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Name          *string            `json:"name"`
		Description   *string            `json:"description"`
		Status        *models.TaskStatus `json:"status"`
		DueDate       *string            `json:"due_date"`
		AssignedTo    *string            `json:"assigned_to"`
		WorkPackageID *string            `json:"work_package_id"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := repository.TaskUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		AssignedTo:    req.AssignedTo,
		WorkPackageID: req.WorkPackageID,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			upd.ClearDueDate = true
		} else {
			due, err := parseDate("due_date", *req.DueDate)
			if err != nil {
				respondError(c, err)
				return
			}
			upd.DueDate = due
		}
	}

	task, err := h.projects.UpdateTask(c.Request.Context(), p, c.Param("id"), c.Param("task_id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus sets one task's status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	type UpdateStatusRequest struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.projects.UpdateTaskStatus(c.Request.Context(), p, c.Param("id"), c.Param("task_id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes one task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteTask(c.Request.Context(), p, c.Param("id"), c.Param("task_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}
