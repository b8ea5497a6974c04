package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/database"
	"github.com/yukikurage/pandora-pm/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{
		DBDriver:   config.DriverSQLite,
		SQLitePath: ":memory:",
		GinMode:    "release",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo UserRepository, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func createProject(t *testing.T, repo ProjectRepository, name, ownerID string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OwnerID: ownerID}
	require.NoError(t, repo.Create(context.Background(), project))
	return project
}

func ptr[T any](v T) *T {
	return &v
}
