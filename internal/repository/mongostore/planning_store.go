package mongostore

import (
	"context"

	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlanningStore implements repository.PlanningRepository on the
// work_packages and milestones collections.
type PlanningStore struct {
	workPackages *mongo.Collection
	milestones   *mongo.Collection
}

var _ repository.PlanningRepository = (*PlanningStore)(nil)

func NewPlanningStore(db *mongo.Database) *PlanningStore {
	return &PlanningStore{
		workPackages: db.Collection(WorkPackagesCollection),
		milestones:   db.Collection(MilestonesCollection),
	}
}

func (s *PlanningStore) CreateWorkPackage(ctx context.Context, wp *models.WorkPackage) error {
	if wp.ID == "" {
		wp.ID = utils.NewID()
	}
	wp.CreatedAt = utils.Now()
	_, err := s.workPackages.InsertOne(ctx, wp)
	return mapError("create work package", "work package", err)
}

func (s *PlanningStore) FindWorkPackage(ctx context.Context, projectID, id string) (*models.WorkPackage, error) {
	var wp models.WorkPackage
	err := s.workPackages.FindOne(ctx, bson.M{"_id": id, "project_id": projectID}).Decode(&wp)
	if err != nil {
		return nil, mapError("find work package", "work package", err)
	}
	return &wp, nil
}

func (s *PlanningStore) ListWorkPackages(ctx context.Context, projectID string) ([]models.WorkPackage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.workPackages.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, mapError("list work packages", "work package", err)
	}
	wps := []models.WorkPackage{}
	if err := cursor.All(ctx, &wps); err != nil {
		return nil, mapError("list work packages", "work package", err)
	}
	return wps, nil
}

func (s *PlanningStore) DeleteWorkPackage(ctx context.Context, projectID, id string) error {
	return deleteScoped(ctx, s.workPackages, "work package", projectID, id)
}

func (s *PlanningStore) CreateMilestone(ctx context.Context, m *models.Milestone) error {
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	m.CreatedAt = utils.Now()
	_, err := s.milestones.InsertOne(ctx, m)
	return mapError("create milestone", "milestone", err)
}

func (s *PlanningStore) ListMilestones(ctx context.Context, projectID string) ([]models.Milestone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "target_date", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.milestones.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, mapError("list milestones", "milestone", err)
	}
	milestones := []models.Milestone{}
	if err := cursor.All(ctx, &milestones); err != nil {
		return nil, mapError("list milestones", "milestone", err)
	}
	return milestones, nil
}

func (s *PlanningStore) DeleteMilestone(ctx context.Context, projectID, id string) error {
	return deleteScoped(ctx, s.milestones, "milestone", projectID, id)
}

// DeleteByProject removes work packages first, then milestones. The two
// collections are not updated atomically.
func (s *PlanningStore) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := s.workPackages.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return mapError("delete work packages", "work package", err)
	}
	if _, err := s.milestones.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return mapError("delete milestones", "milestone", err)
	}
	return nil
}

func deleteScoped(ctx context.Context, coll *mongo.Collection, resource, projectID, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id, "project_id": projectID})
	if err != nil {
		return mapError("delete "+resource, resource, err)
	}
	if res.DeletedCount == 0 {
		return apierrors.NotFound(resource)
	}
	return nil
}
