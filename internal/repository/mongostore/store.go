// Package mongostore keeps projects as MongoDB documents with their tasks
// embedded in the tasks array. Every task mutation is a single-document
// update addressed by (project id, task id).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"k8s.io/klog/v2"
)

// Collection names
const (
	UsersCollection        = "users"
	ProjectsCollection     = "projects"
	WorkPackagesCollection = "work_packages"
	MilestonesCollection   = "milestones"
)

const connectTimeout = 10 * time.Second

// Store bundles the collection-backed repositories of one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	Users    *UserStore
	Projects *ProjectStore
	Planning *PlanningStore
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	klog.InfoS("MongoDB connection established", "database", database)
	store := New(client.Database(database))
	store.client = client
	return store, nil
}

// New wraps an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		Users:    NewUserStore(db),
		Projects: NewProjectStore(db),
		Planning: NewPlanningStore(db),
	}
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the queries rely on. Existing indexes
// with the same definition are left untouched.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username_ci", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		ProjectsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "tasks.assigned_to", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		WorkPackagesCollection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "name", Value: 1}}},
		},
		MilestonesCollection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "target_date", Value: -1}}},
		},
	}

	for coll, specs := range indexes {
		names, err := s.db.Collection(coll).Indexes().CreateMany(ctx, specs)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		klog.V(2).InfoS("Ensured indexes", "collection", coll, "indexes", names)
	}
	return nil
}

// mapError maps a driver error onto the error taxonomy.
func mapError(op, resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierrors.NotFound(resource)
	case mongo.IsDuplicateKeyError(err):
		return apierrors.Conflict(apierrors.ErrCodeAlreadyExists, resource+" already exists")
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		return apierrors.Unavailable(op, err)
	default:
		return apierrors.Store(op, err)
	}
}

func setFields(prefix string, fields map[string]any) bson.M {
	set := bson.M{}
	for k, v := range fields {
		set[prefix+k] = v
	}
	return set
}
