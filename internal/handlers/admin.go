package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/dto"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/services"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// AdminHandler serves the admin console. Routes are mounted behind
// RequireAdmin; the services check the role again.
type AdminHandler struct {
	users    *services.UserService
	projects *services.ProjectService
}

func NewAdminHandler(users *services.UserService, projects *services.ProjectService) *AdminHandler {
	return &AdminHandler{users: users, projects: projects}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToStatsDTO(stats))
}

func (h *AdminHandler) ListProjects(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	projects, err := h.projects.ListAll(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectList(projects)})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	page := utils.GetPaginationParams(c)
	users, total, err := h.users.ListUsers(c.Request.Context(), p, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserListResponse(users, page, total))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser edits username, email and role of an account
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	type UpdateUserRequest struct {
		Username *string      `json:"username"`
		Email    *string      `json:"email"`
		Role     *models.Role `json:"role"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), p, c.Param("id"), services.AdminUpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// SetRole is the quick role change
func (h *AdminHandler) SetRole(c *gin.Context) {
	type SetRoleRequest struct {
		Role models.Role `json:"role" binding:"required"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req SetRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), p, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
