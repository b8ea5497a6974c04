package repository

import (
	"context"

	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"gorm.io/gorm"
)

// GormPlanningRepository is a GORM implementation of PlanningRepository
type GormPlanningRepository struct {
	db *gorm.DB
}

// NewPlanningRepository creates a new PlanningRepository
func NewPlanningRepository(db *gorm.DB) PlanningRepository {
	return &GormPlanningRepository{db: db}
}

func (r *GormPlanningRepository) CreateWorkPackage(ctx context.Context, wp *models.WorkPackage) error {
	if wp.ID == "" {
		wp.ID = utils.NewID()
	}
	wp.CreatedAt = utils.Now()
	return translate("create work package", "work package", r.db.WithContext(ctx).Create(wp).Error)
}

func (r *GormPlanningRepository) FindWorkPackage(ctx context.Context, projectID, id string) (*models.WorkPackage, error) {
	if !utils.ValidID(id) {
		return nil, apierrors.NotFound("work package")
	}

	var wp models.WorkPackage
	err := r.db.WithContext(ctx).Where("project_id = ? AND id = ?", projectID, id).First(&wp).Error
	if err != nil {
		return nil, translate("find work package", "work package", err)
	}
	return &wp, nil
}

func (r *GormPlanningRepository) ListWorkPackages(ctx context.Context, projectID string) ([]models.WorkPackage, error) {
	wps := []models.WorkPackage{}
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("created_at ASC, id ASC").
		Find(&wps).Error
	if err != nil {
		return nil, translate("list work packages", "work package", err)
	}
	return wps, nil
}

func (r *GormPlanningRepository) DeleteWorkPackage(ctx context.Context, projectID, id string) error {
	return r.delete(ctx, &models.WorkPackage{}, "work package", projectID, id)
}

func (r *GormPlanningRepository) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	m.CreatedAt = utils.Now()
	return translate("create milestone", "milestone", r.db.WithContext(ctx).Create(m).Error)
}

func (r *GormPlanningRepository) ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error) {
	milestones := []models.Milestone{}
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("target_date DESC, id DESC").
		Find(&milestones).Error
	if err != nil {
		return nil, translate("list milestones", "milestone", err)
	}
	return milestones, nil
}

func (r *GormPlanningRepository) DeleteMilestone(ctx context.Context, projectID, id string) error {
	return r.delete(ctx, &models.Milestone{}, "milestone", projectID, id)
}

func (r *GormPlanningRepository) delete(ctx context.Context, model any, resource, projectID, id string) error {
	if !utils.ValidID(id) {
		return apierrors.NotFound(resource)
	}

	res := r.db.WithContext(ctx).Where("project_id = ? AND id = ?", projectID, id).Delete(model)
	if res.Error != nil {
		return translate("delete "+resource, resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierrors.NotFound(resource)
	}
	return nil
}

// DeleteByProject removes the planning records of a project in one transaction
func (r *GormPlanningRepository) DeleteByProject(ctx context.Context, projectID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.WorkPackage{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", projectID).Delete(&models.Milestone{}).Error
	})
	return translate("delete planning records", "project", err)
}
