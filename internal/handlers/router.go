package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/middleware"
	"github.com/yukikurage/pandora-pm/internal/repository"
)

// Routes bundles everything the API routes are wired to.
type Routes struct {
	Auth     *AuthHandler
	Projects *ProjectHandler
	Tasks    *TaskHandler
	Planning *PlanningHandler
	Admin    *AdminHandler

	Users          repository.UserRepository
	RequestTimeout time.Duration
}

// Register mounts /health and the /api tree on r. Session middleware must
// already be installed.
func (rt Routes) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Pandora PM is running",
		})
	})

	r.NoRoute(func(c *gin.Context) {
		apierrors.RespondNotFound(c, "")
	})

	api := r.Group("/api")
	if rt.RequestTimeout > 0 {
		api.Use(middleware.RequestTimeout(rt.RequestTimeout))
	}
	requireAuth := middleware.RequireAuth(rt.Users)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/logout", rt.Auth.Logout)
		auth.GET("/me", requireAuth, rt.Auth.GetCurrentUser)
		auth.PATCH("/me", requireAuth, rt.Auth.UpdateProfile)
	}

	api.GET("/dashboard", requireAuth, rt.Projects.Dashboard)

	// Project routes
	projects := api.Group("/projects")
	projects.Use(requireAuth)
	{
		projects.GET("", rt.Projects.ListProjects)
		projects.POST("", rt.Projects.CreateProject)
		projects.GET("/:id", rt.Projects.GetProject)
		projects.PATCH("/:id", rt.Projects.UpdateProject)
		projects.DELETE("/:id", rt.Projects.DeleteProject)

		projects.POST("/:id/tasks", rt.Tasks.CreateTask)
		projects.GET("/:id/tasks/:task_id", rt.Tasks.GetTask)
		projects.PUT("/:id/tasks/:task_id", rt.Tasks.UpdateTask)
		projects.DELETE("/:id/tasks/:task_id", rt.Tasks.DeleteTask)
		projects.PATCH("/:id/tasks/:task_id/status", rt.Tasks.UpdateTaskStatus)

		projects.GET("/:id/work-packages", rt.Planning.ListWorkPackages)
		projects.POST("/:id/work-packages", rt.Planning.CreateWorkPackage)
		projects.DELETE("/:id/work-packages/:wp_id", rt.Planning.DeleteWorkPackage)
		projects.GET("/:id/milestones", rt.Planning.ListMilestones)
		projects.POST("/:id/milestones", rt.Planning.CreateMilestone)
		projects.DELETE("/:id/milestones/:milestone_id", rt.Planning.DeleteMilestone)
	}

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/stats", rt.Admin.Stats)
		admin.GET("/projects", rt.Admin.ListProjects)
		admin.GET("/users", rt.Admin.ListUsers)
		admin.GET("/users/:id", rt.Admin.GetUser)
		admin.PUT("/users/:id", rt.Admin.UpdateUser)
		admin.DELETE("/users/:id", rt.Admin.DeleteUser)
		admin.PATCH("/users/:id/role", rt.Admin.SetRole)
	}
}
