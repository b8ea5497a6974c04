package main

import (
	"context"

	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/database"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/repository/mongostore"
	"k8s.io/klog/v2"
)

// stores is the selected backend behind the repository interfaces.
type stores struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	planning repository.PlanningRepository
	close    func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DBDriver == config.DriverMongo {
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return &stores{
			users:    store.Users,
			projects: store.Projects,
			planning: store.Planning,
			close:    store.Close,
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &stores{
		users:    repository.NewUserRepository(db),
		projects: repository.NewProjectRepository(db),
		planning: repository.NewPlanningRepository(db),
		close: func(context.Context) error {
			klog.InfoS("Closing database connection", "driver", cfg.DBDriver)
			return sqlDB.Close()
		},
	}, nil
}
