package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/dto"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/services"
)

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Dashboard returns the caller's projects and upcoming tasks
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	board, err := h.projects.Dashboard(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDashboardDTO(board))
}

// ListProjects returns the projects visible to the caller
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListVisible(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectList(projects)})
}

// CreateProject creates a project owned by the caller
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		DueDate     *string `json:"due_date"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), p, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     dueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// GetProject returns one project with its tasks in display order
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// UpdateProject applies a partial update. An empty due_date clears it.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		DueDate     *string `json:"due_date"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := repository.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
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

	project, err := h.projects.UpdateProject(c.Request.Context(), p, c.Param("id"), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project, its tasks and its planning records
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
