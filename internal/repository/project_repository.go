package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/pandora-pm/internal/constants"
	"github.com/yukikurage/pandora-pm/internal/database"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository.
// Tasks live in the project_tasks arena; every task mutation is one
// statement keyed by (project_id, id).
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

var orderTasks = database.OldestFirst("project_tasks")

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := ValidateNewProject(project); err != nil {
		return err
	}
	if project.ID == "" {
		project.ID = utils.NewID()
	}
	now := utils.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Tasks = []models.Task{}

	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
	return translate("create project", "project", err)
}

// FindByID finds a project by ID with its tasks
func (r *GormProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	if !utils.ValidID(id) {
		return nil, apierrors.NotFound("project")
	}

	var project models.Project
	err := r.db.WithContext(ctx).Preload("Tasks", orderTasks).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, translate("find project", "project", err)
	}
	project.Normalize()
	return &project, nil
}

// Update applies a partial update inside one transaction
func (r *GormProjectRepository) Update(ctx context.Context, id string, upd ProjectUpdate) (UpdateResult, error) {
	if err := ValidateProjectUpdate(&upd); err != nil {
		return UpdateResult{}, err
	}
	if !utils.ValidID(id) {
		return UpdateResult{}, apierrors.NotFound("project")
	}

	var result UpdateResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Project
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return err
		}
		result.Matched = true

		changes := upd.Changes(&cur)
		result.Modified = len(changes) > 0
		changes["updated_at"] = utils.Now()

		return tx.Model(&models.Project{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return UpdateResult{}, translate("update project", "project", err)
	}
	return result, nil
}

// Delete removes a project and its tasks atomically. The parent row is
// locked first so a concurrent AddTask cannot slip a task in between.
func (r *GormProjectRepository) Delete(ctx context.Context, id string) error {
	if !utils.ValidID(id) {
		return apierrors.NotFound("project")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&cur, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete project", "project", err)
}

// AddTask touches the parent row and inserts the task in one transaction.
// The parent update doubles as the existence check.
func (r *GormProjectRepository) AddTask(ctx context.Context, projectID string, in TaskInput, creatorID string) (*models.Task, error) {
	if err := ValidateTaskInput(&in); err != nil {
		return nil, err
	}
	if !utils.ValidID(projectID) {
		return nil, apierrors.NotFound("project")
	}

	now := utils.Now()
	task := &models.Task{
		ID:            utils.NewID(),
		ProjectID:     projectID,
		Name:          in.Name,
		Description:   in.Description,
		Status:        in.Status,
		DueDate:       in.DueDate,
		CreatedBy:     creatorID,
		AssignedTo:    in.AssignedTo,
		WorkPackageID: in.WorkPackageID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Project{}).Where("id = ?", projectID).Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(task).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apierrors.Conflict("", "task was not appended")
	}
	if err != nil {
		return nil, translate("add task", "project", err)
	}
	return task, nil
}

// FindTask finds a task matching both the project and the task id
func (r *GormProjectRepository) FindTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	if !utils.ValidID(projectID) || !utils.ValidID(taskID) {
		return nil, apierrors.NotFound("task")
	}

	var task models.Task
	err := r.db.WithContext(ctx).Where("project_id = ? AND id = ?", projectID, taskID).First(&task).Error
	if err != nil {
		return nil, translate("find task", "task", err)
	}
	return &task, nil
}

// UpdateTask updates the supplied fields of a single task row
func (r *GormProjectRepository) UpdateTask(ctx context.Context, projectID, taskID string, upd TaskUpdate) error {
	if err := ValidateTaskUpdate(&upd); err != nil {
		return err
	}
	fields := upd.Fields()
	fields["updated_at"] = utils.Now()
	return r.updateTask(ctx, "update task", projectID, taskID, fields)
}

// UpdateTaskStatus sets the status of a single task row
func (r *GormProjectRepository) UpdateTaskStatus(ctx context.Context, projectID, taskID string, status models.TaskStatus) error {
	if err := ValidateTaskStatus(status); err != nil {
		return err
	}
	return r.updateTask(ctx, "update task status", projectID, taskID, map[string]any{
		"status":     status,
		"updated_at": utils.Now(),
	})
}

func (r *GormProjectRepository) updateTask(ctx context.Context, op, projectID, taskID string, fields map[string]any) error {
	if !utils.ValidID(projectID) || !utils.ValidID(taskID) {
		return apierrors.NotFound("task")
	}

	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND id = ?", projectID, taskID).
		Updates(fields)
	if res.Error != nil {
		return translate(op, "task", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierrors.NotFound("task")
	}
	return nil
}

// DeleteTask removes a single task row
func (r *GormProjectRepository) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if !utils.ValidID(projectID) || !utils.ValidID(taskID) {
		return apierrors.NotFound("task")
	}

	res := r.db.WithContext(ctx).Where("project_id = ? AND id = ?", projectID, taskID).Delete(&models.Task{})
	if res.Error != nil {
		return translate("delete task", "task", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierrors.NotFound("task")
	}
	return nil
}

// ListVisibleTo lists projects owned by the user or with a task assigned to them
func (r *GormProjectRepository) ListVisibleTo(ctx context.Context, userID string) ([]models.Project, error) {
	assigned := r.db.Model(&models.Task{}).
		Select("1").
		Where("project_tasks.project_id = projects.id").
		Where("project_tasks.assigned_to = ?", userID)

	query := r.db.WithContext(ctx).
		Where("projects.owner_id = ?", userID).
		Or("EXISTS (?)", assigned)
	return r.list(query, "list visible projects")
}

// ListAll lists every project
func (r *GormProjectRepository) ListAll(ctx context.Context) ([]models.Project, error) {
	return r.list(r.db.WithContext(ctx), "list projects")
}

func (r *GormProjectRepository) list(query *gorm.DB, op string) ([]models.Project, error) {
	projects := []models.Project{}
	err := query.Preload("Tasks", orderTasks).
		Scopes(database.NewestFirst("projects")).
		Find(&projects).Error
	if err != nil {
		return nil, translate(op, "project", err)
	}
	for i := range projects {
		projects[i].Normalize()
	}
	return projects, nil
}

// UpcomingTasks lists open tasks, soonest due first with undated tasks last
func (r *GormProjectRepository) UpcomingTasks(ctx context.Context, filter UpcomingFilter) ([]TaskSummary, error) {
	query := r.db.WithContext(ctx).Table("project_tasks").
		Select("project_tasks.*, projects.name AS project_name").
		Joins("JOIN projects ON projects.id = project_tasks.project_id").
		Where("project_tasks.status <> ?", models.TaskStatusDone)

	if filter.OwnerID != "" {
		query = query.Where("projects.owner_id = ?", filter.OwnerID)
	}
	if filter.AssigneeID != "" {
		query = query.Where("project_tasks.assigned_to = ?", filter.AssigneeID)
	}

	summaries := []TaskSummary{}
	err := query.
		Order("CASE WHEN project_tasks.due_date IS NULL THEN 1 ELSE 0 END, project_tasks.due_date ASC, project_tasks.created_at DESC").
		Limit(upcomingLimit(filter.Limit)).
		Scan(&summaries).Error
	if err != nil {
		return nil, translate("list upcoming tasks", "task", err)
	}
	return summaries, nil
}

// UnassignUser clears every assignment of the user
func (r *GormProjectRepository) UnassignUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("assigned_to = ?", userID).
		Updates(map[string]any{"assigned_to": nil, "updated_at": utils.Now()})
	if res.Error != nil {
		return 0, translate("unassign user", "task", res.Error)
	}
	return res.RowsAffected, nil
}

// DetachWorkPackage clears references to a deleted work package
func (r *GormProjectRepository) DetachWorkPackage(ctx context.Context, projectID, workPackageID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ? AND work_package_id = ?", projectID, workPackageID).
		Updates(map[string]any{"work_package_id": nil, "updated_at": utils.Now()})
	if res.Error != nil {
		return 0, translate("detach work package", "task", res.Error)
	}
	return res.RowsAffected, nil
}

// Stats counts projects and tasks
func (r *GormProjectRepository) Stats(ctx context.Context) (ProjectStats, error) {
	var stats ProjectStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Project{}).Count(&stats.Projects).Error; err != nil {
		return ProjectStats{}, translate("count projects", "project", err)
	}
	if err := db.Model(&models.Task{}).Count(&stats.Tasks).Error; err != nil {
		return ProjectStats{}, translate("count tasks", "task", err)
	}
	return stats, nil
}

func upcomingLimit(limit int) int {
	if limit <= 0 {
		return constants.DashboardTaskLimit
	}
	return limit
}
