package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/pandora-pm/internal/services"
)

type PlanningHandler struct {
	planning *services.PlanningService
}

func NewPlanningHandler(planning *services.PlanningService) *PlanningHandler {
	return &PlanningHandler{planning: planning}
}

func (h *PlanningHandler) ListWorkPackages(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	wps, err := h.planning.ListWorkPackages(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_packages": wps})
}

func (h *PlanningHandler) CreateWorkPackage(c *gin.Context) {
	type CreateWorkPackageRequest struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		StartDate   *string `json:"start_date"`
		EndDate     *string `json:"end_date"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateWorkPackageRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}

	wp, err := h.planning.CreateWorkPackage(c.Request.Context(), p, c.Param("id"), services.WorkPackageInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wp)
}

func (h *PlanningHandler) DeleteWorkPackage(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.planning.DeleteWorkPackage(c.Request.Context(), p, c.Param("id"), c.Param("wp_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Work package deleted successfully"})
}

func (h *PlanningHandler) ListMilestones(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	milestones, err := h.planning.ListMilestones(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

func (h *PlanningHandler) CreateMilestone(c *gin.Context) {
	type CreateMilestoneRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		TargetDate  string `json:"target_date" binding:"required"`
	}

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req CreateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := parseDate("target_date", req.TargetDate)
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := h.planning.CreateMilestone(c.Request.Context(), p, c.Param("id"), services.MilestoneInput{
		Name:        req.Name,
		Description: req.Description,
		TargetDate:  target,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *PlanningHandler) DeleteMilestone(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.planning.DeleteMilestone(c.Request.Context(), p, c.Param("id"), c.Param("milestone_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milestone deleted successfully"})
}
