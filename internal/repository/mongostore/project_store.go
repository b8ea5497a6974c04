package mongostore

import (
	"context"

	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectStore implements repository.ProjectRepository on the projects
// collection.
type ProjectStore struct {
	coll *mongo.Collection
}

var _ repository.ProjectRepository = (*ProjectStore)(nil)

func NewProjectStore(db *mongo.Database) *ProjectStore {
	return &ProjectStore{coll: db.Collection(ProjectsCollection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	if err := repository.ValidateNewProject(project); err != nil {
		return err
	}
	if project.ID == "" {
		project.ID = utils.NewID()
	}
	now := utils.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	project.Tasks = []models.Task{}

	_, err := s.coll.InsertOne(ctx, project)
	return mapError("create project", "project", err)
}

func (s *ProjectStore) FindByID(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		return nil, mapError("find project", "project", err)
	}
	project.Normalize()
	return &project, nil
}

// Update sets the requested fields and compares them with the document as it
// was before the write, so matched and modified come from one round trip.
func (s *ProjectStore) Update(ctx context.Context, id string, upd repository.ProjectUpdate) (repository.UpdateResult, error) {
	if err := repository.ValidateProjectUpdate(&upd); err != nil {
		return repository.UpdateResult{}, err
	}

	set := setFields("", upd.Fields())
	set["updated_at"] = utils.Now()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"tasks": 0})

	var before models.Project
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&before)
	if err != nil {
		return repository.UpdateResult{}, mapError("update project", "project", err)
	}
	return repository.UpdateResult{
		Matched:  true,
		Modified: len(upd.Changes(&before)) > 0,
	}, nil
}

func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError("delete project", "project", err)
	}
	if res.DeletedCount == 0 {
		return apierrors.NotFound("project")
	}
	return nil
}

// AddTask appends with $push. A matched document that reports no
// modification means the append did not happen.
func (s *ProjectStore) AddTask(ctx context.Context, projectID string, in repository.TaskInput, creatorID string) (*models.Task, error) {
	if err := repository.ValidateTaskInput(&in); err != nil {
		return nil, err
	}

	now := utils.Now()
	task := models.Task{
		ID:            utils.NewID(),
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

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{
		"$push": bson.M{"tasks": task},
		"$set":  bson.M{"updated_at": now},
	})
	if err != nil {
		return nil, mapError("add task", "project", err)
	}
	if res.MatchedCount == 0 {
		return nil, apierrors.NotFound("project")
	}
	if res.ModifiedCount == 0 {
		return nil, apierrors.Conflict("", "task was not appended")
	}

	task.ProjectID = projectID
	return &task, nil
}

// FindTask projects only the matched array element.
func (s *ProjectStore) FindTask(ctx context.Context, projectID, taskID string) (*models.Task, error) {
	var doc struct {
		Tasks []models.Task `bson:"tasks"`
	}
	opts := options.FindOne().SetProjection(bson.M{"tasks.$": 1})
	err := s.coll.FindOne(ctx, bson.M{"_id": projectID, "tasks._id": taskID}, opts).Decode(&doc)
	if err != nil {
		return nil, mapError("find task", "task", err)
	}
	if len(doc.Tasks) == 0 {
		return nil, apierrors.NotFound("task")
	}

	task := doc.Tasks[0]
	task.ProjectID = projectID
	return &task, nil
}

func (s *ProjectStore) UpdateTask(ctx context.Context, projectID, taskID string, upd repository.TaskUpdate) error {
	if err := repository.ValidateTaskUpdate(&upd); err != nil {
		return err
	}
	set := setFields("tasks.$.", upd.Fields())
	set["tasks.$.updated_at"] = utils.Now()
	return s.updateTask(ctx, "update task", projectID, taskID, set)
}

func (s *ProjectStore) UpdateTaskStatus(ctx context.Context, projectID, taskID string, status models.TaskStatus) error {
	if err := repository.ValidateTaskStatus(status); err != nil {
		return err
	}
	return s.updateTask(ctx, "update task status", projectID, taskID, bson.M{
		"tasks.$.status":     status,
		"tasks.$.updated_at": utils.Now(),
	})
}

// updateTask applies a positional $set to the one matching element.
func (s *ProjectStore) updateTask(ctx context.Context, op, projectID, taskID string, set bson.M) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "tasks._id": taskID},
		bson.M{"$set": set},
	)
	if err != nil {
		return mapError(op, "task", err)
	}
	if res.MatchedCount == 0 {
		return apierrors.NotFound("task")
	}
	return nil
}

func (s *ProjectStore) DeleteTask(ctx context.Context, projectID, taskID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "tasks._id": taskID},
		bson.M{"$pull": bson.M{"tasks": bson.M{"_id": taskID}}},
	)
	if err != nil {
		return mapError("delete task", "task", err)
	}
	if res.MatchedCount == 0 {
		return apierrors.NotFound("task")
	}
	return nil
}

func (s *ProjectStore) ListVisibleTo(ctx context.Context, userID string) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"tasks": bson.M{"$elemMatch": bson.M{"assigned_to": userID}}},
	}}
	return s.find(ctx, "list visible projects", filter)
}

func (s *ProjectStore) ListAll(ctx context.Context) ([]models.Project, error) {
	return s.find(ctx, "list projects", bson.M{})
}

func (s *ProjectStore) find(ctx context.Context, op string, filter bson.M) ([]models.Project, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, mapError(op, "project", err)
	}

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, mapError(op, "project", err)
	}
	for i := range projects {
		projects[i].Normalize()
	}
	return projects, nil
}

// UpcomingTasks unwinds the embedded tasks, keeps open ones and sorts
// them by due date with undated tasks last.
func (s *ProjectStore) UpcomingTasks(ctx context.Context, filter repository.UpcomingFilter) ([]repository.TaskSummary, error) {
	projectMatch := bson.M{}
	taskMatch := bson.M{"tasks.status": bson.M{"$ne": models.TaskStatusDone}}
	if filter.OwnerID != "" {
		projectMatch["owner_id"] = filter.OwnerID
	}
	if filter.AssigneeID != "" {
		projectMatch["tasks.assigned_to"] = filter.AssigneeID
		taskMatch["tasks.assigned_to"] = filter.AssigneeID
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = constants.DashboardTaskLimit
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: projectMatch}},
		{{Key: "$unwind", Value: "$tasks"}},
		{{Key: "$match", Value: taskMatch}},
		{{Key: "$addFields", Value: bson.M{
			"undated": bson.M{"$cond": bson.A{bson.M{"$ifNull": bson.A{"$tasks.due_date", false}}, 0, 1}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "undated", Value: 1},
			{Key: "tasks.due_date", Value: 1},
			{Key: "tasks.created_at", Value: -1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"name": 1, "tasks": 1}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, mapError("list upcoming tasks", "task", err)
	}

	var rows []struct {
		ProjectID   string      `bson:"_id"`
		ProjectName string      `bson:"name"`
		Task        models.Task `bson:"tasks"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, mapError("list upcoming tasks", "task", err)
	}

	summaries := make([]repository.TaskSummary, 0, len(rows))
	for _, row := range rows {
		row.Task.ProjectID = row.ProjectID
		summaries = append(summaries, repository.TaskSummary{Task: row.Task, ProjectName: row.ProjectName})
	}
	return summaries, nil
}

// UnassignUser clears the assignee on every matching element with an
// array filter. The count is the number of project documents touched.
func (s *ProjectStore) UnassignUser(ctx context.Context, userID string) (int64, error) {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"t.assigned_to": userID}},
	})
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"tasks.assigned_to": userID},
		bson.M{"$set": bson.M{
			"tasks.$[t].assigned_to": nil,
			"tasks.$[t].updated_at":  utils.Now(),
		}},
		opts,
	)
	if err != nil {
		return 0, mapError("unassign user", "task", err)
	}
	return res.ModifiedCount, nil
}

func (s *ProjectStore) DetachWorkPackage(ctx context.Context, projectID, workPackageID string) (int64, error) {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"t.work_package_id": workPackageID}},
	})
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "tasks.work_package_id": workPackageID},
		bson.M{"$set": bson.M{
			"tasks.$[t].work_package_id": nil,
			"tasks.$[t].updated_at":      utils.Now(),
		}},
		opts,
	)
	if err != nil {
		return 0, mapError("detach work package", "task", err)
	}
	return res.ModifiedCount, nil
}

func (s *ProjectStore) Stats(ctx context.Context) (repository.ProjectStats, error) {
	var stats repository.ProjectStats

	projects, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, mapError("count projects", "project", err)
	}
	stats.Projects = projects

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"tasks": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$tasks", bson.A{}}}}},
		}}},
	})
	if err != nil {
		return stats, mapError("count tasks", "task", err)
	}
	var totals []struct {
		Tasks int64 `bson:"tasks"`
	}
	if err := cursor.All(ctx, &totals); err != nil {
		return stats, mapError("count tasks", "task", err)
	}
	if len(totals) > 0 {
		stats.Tasks = totals[0].Tasks
	}
	return stats, nil
}
