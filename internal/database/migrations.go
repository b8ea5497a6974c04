package database

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/yukikurage/pandora-pm/internal/models"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

type index struct {
	table   string
	name    string
	columns string
}

// Composite indexes backing the visibility, dashboard and planning queries.
var indexes = []index{
	{"projects", "idx_projects_created_at_id", "created_at, id"},
	{"project_tasks", "idx_project_tasks_assignee_status", "assigned_to, status"},
	{"project_tasks", "idx_project_tasks_status_due_date", "status, due_date"},
	{"project_tasks", "idx_project_tasks_work_package", "project_id, work_package_id"},
	{"work_packages", "idx_work_packages_project_name", "project_id, name"},
	{"milestones", "idx_milestones_project_target", "project_id, target_date"},
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202501150001_initial_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.User{},
					&models.Project{},
					&models.Task{},
					&models.WorkPackage{},
					&models.Milestone{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("milestones", "work_packages", "project_tasks", "projects", "users")
			},
		},
		{
			ID:      "202501150002_query_indexes",
			Migrate: AddIndexes,
			Rollback: func(tx *gorm.DB) error {
				for _, idx := range indexes {
					if err := tx.Migrator().DropIndex(idx.table, idx.name); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	klog.InfoS("Running database migrations")
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	klog.InfoS("Database migrations completed")
	return nil
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			klog.V(2).InfoS("Index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		klog.V(2).InfoS("Created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
