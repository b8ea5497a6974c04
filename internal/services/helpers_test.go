package services

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/pandora-pm/internal/access"
	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/database"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	users    repository.UserRepository
	projects repository.ProjectRepository
	planning repository.PlanningRepository

	auth        *AuthService
	admin       *UserService
	projectSvc  *ProjectService
	planningSvc *PlanningService
}

func newTestEnv(t *testing.T, policy access.Policy, revealMissing bool) *testEnv {
	t.Helper()

	db, err := database.Connect(&config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: ":memory:",
		GinMode:    "release",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		projects: repository.NewProjectRepository(db),
		planning: repository.NewPlanningRepository(db),
	}
	evaluator := access.NewEvaluator(policy)
	log := logr.Discard()

	env.auth = NewAuthService(env.users, log)
	env.admin = NewUserService(env.users, env.projects, evaluator, log)
	env.projectSvc = NewProjectService(ProjectServiceConfig{
		Projects:      env.projects,
		Planning:      env.planning,
		Users:         env.users,
		Evaluator:     evaluator,
		RevealMissing: revealMissing,
		Log:           log,
	})
	env.planningSvc = NewPlanningService(env.projects, env.planning, evaluator, revealMissing, log)
	return env
}

// addUser inserts an account directly, skipping password hashing.
func (e *testEnv) addUser(t *testing.T, username string, role models.Role) access.Principal {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return access.Principal{UserID: user.ID, Role: user.Role}
}

func ptr[T any](v T) *T {
	return &v
}
