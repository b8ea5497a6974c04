package models

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To Do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusBlocked    TaskStatus = "Blocked"
	TaskStatusInReview   TaskStatus = "In Review"
	TaskStatusDone       TaskStatus = "Done"
)

var TaskStatuses = []TaskStatus{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusBlocked,
	TaskStatusInReview,
	TaskStatusDone,
}

func (s TaskStatus) Valid() bool {
	return lo.Contains(TaskStatuses, s)
}

// Task is embedded in a Project. Its id is only unique within the project.
type Task struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ProjectID     string     `gorm:"primaryKey;type:varchar(36)" bson:"-" json:"project_id"`
	Name          string     `gorm:"type:varchar(200);not null" bson:"name" json:"name"`
	Description   string     `gorm:"type:text" bson:"description" json:"description"`
	Status        TaskStatus `gorm:"type:varchar(20);not null;default:'To Do'" bson:"status" json:"status"`
	DueDate       *time.Time `bson:"due_date" json:"due_date"`
	CreatedBy     string     `gorm:"type:varchar(36);not null" bson:"created_by" json:"created_by"`
	AssignedTo    *string    `gorm:"type:varchar(36)" bson:"assigned_to" json:"assigned_to"`
	WorkPackageID *string    `gorm:"type:varchar(36)" bson:"work_package_id" json:"work_package_id"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

func (Task) TableName() string {
	return "project_tasks"
}

func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// SortTasksForDisplay orders tasks by due date with undated tasks last, then
// by creation time.
func SortTasksForDisplay(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
