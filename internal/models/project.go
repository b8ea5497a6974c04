package models

import (
	"time"

	"github.com/samber/lo"
)

const DefaultProjectStatus = "Active"

// Project owns its tasks. In SQL the tasks live in the project_tasks table
// keyed by (project_id, id); in MongoDB they are the embedded tasks array.
type Project struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Name        string     `gorm:"type:varchar(120);not null" bson:"name" json:"name"`
	Description string     `gorm:"type:text" bson:"description" json:"description"`
	OwnerID     string     `gorm:"type:varchar(36);not null;index" bson:"owner_id" json:"owner_id"`
	Status      string     `gorm:"type:varchar(50);not null;default:'Active'" bson:"status" json:"status"`
	DueDate     *time.Time `bson:"due_date" json:"due_date"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:ProjectID" bson:"tasks" json:"tasks"`
}

// Normalize guarantees the task collection is an empty array rather than nil
// and stamps the parent id on every task.
func (p *Project) Normalize() {
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	for i := range p.Tasks {
		p.Tasks[i].ProjectID = p.ID
	}
}

// FindTask returns the task with the given id, or nil.
func (p *Project) FindTask(taskID string) *Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			return &p.Tasks[i]
		}
	}
	return nil
}

// HasAssignee reports whether any task of the project is assigned to userID.
func (p *Project) HasAssignee(userID string) bool {
	return lo.ContainsBy(p.Tasks, func(t Task) bool {
		return t.IsAssignedTo(userID)
	})
}
