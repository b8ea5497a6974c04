package models

import "time"

// WorkPackage groups tasks within a project.
type WorkPackage struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ProjectID   string     `gorm:"type:varchar(36);not null;index" bson:"project_id" json:"project_id"`
	Name        string     `gorm:"type:varchar(150);not null" bson:"name" json:"name"`
	Description string     `gorm:"type:text" bson:"description" json:"description"`
	CreatedBy   string     `gorm:"type:varchar(36);not null" bson:"created_by" json:"created_by"`
	StartDate   *time.Time `bson:"start_date" json:"start_date"`
	EndDate     *time.Time `bson:"end_date" json:"end_date"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

// Milestone marks a target date in a project timeline.
type Milestone struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	ProjectID   string    `gorm:"type:varchar(36);not null;index" bson:"project_id" json:"project_id"`
	Name        string    `gorm:"type:varchar(150);not null" bson:"name" json:"name"`
	Description string    `gorm:"type:text" bson:"description" json:"description"`
	TargetDate  time.Time `gorm:"not null" bson:"target_date" json:"target_date"`
	CreatedBy   string    `gorm:"type:varchar(36);not null" bson:"created_by" json:"created_by"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
