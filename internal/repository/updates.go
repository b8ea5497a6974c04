package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/pandora-pm/internal/models"
)

// ProjectUpdate lists the project fields a caller wants to change. Nil fields
// are left alone. OwnerID is deliberately absent: ownership is immutable.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	Status       *string
	DueDate      *time.Time
	ClearDueDate bool
}

// StatusOnly reports whether the update touches nothing but the status.
func (u ProjectUpdate) StatusOnly() bool {
	return u.Status != nil && u.Name == nil && u.Description == nil && u.DueDate == nil && !u.ClearDueDate
}

// Fields returns the requested values keyed by column name.
func (u ProjectUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.ClearDueDate {
		fields["due_date"] = nil
	} else if u.DueDate != nil {
		fields["due_date"] = *u.DueDate
	}
	return fields
}

// Changes returns only the requested values that differ from cur.
func (u ProjectUpdate) Changes(cur *models.Project) map[string]any {
	changes := map[string]any{}
	if u.Name != nil && *u.Name != cur.Name {
		changes["name"] = *u.Name
	}
	if u.Description != nil && *u.Description != cur.Description {
		changes["description"] = *u.Description
	}
	if u.Status != nil && *u.Status != cur.Status {
		changes["status"] = *u.Status
	}
	if u.ClearDueDate {
		if cur.DueDate != nil {
			changes["due_date"] = nil
		}
	} else if u.DueDate != nil && !sameTime(u.DueDate, cur.DueDate) {
		changes["due_date"] = *u.DueDate
	}
	return changes
}

// TaskUpdate lists the task fields a caller wants to change. A non-nil
// AssignedTo or WorkPackageID pointing at "" clears the reference.
type TaskUpdate struct {
	Name          *string
	Description   *string
	Status        *models.TaskStatus
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedTo    *string
	WorkPackageID *string
}

// Fields returns the requested values keyed by column name, with cleared
// references as explicit nil.
func (u TaskUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Status != nil {
		fields["status"] = *u.Status
	}
	if u.ClearDueDate {
		fields["due_date"] = nil
	} else if u.DueDate != nil {
		fields["due_date"] = *u.DueDate
	}
	if u.AssignedTo != nil {
		fields["assigned_to"] = nullable(*u.AssignedTo)
	}
	if u.WorkPackageID != nil {
		fields["work_package_id"] = nullable(*u.WorkPackageID)
	}
	return fields
}

// UserUpdate lists the account fields a caller wants to change.
type UserUpdate struct {
	Username     *string
	Email        *string
	Role         *models.Role
	Theme        *models.Theme
	PasswordHash *string
}

// Fields returns the requested values keyed by column name.
func (u UserUpdate) Fields() map[string]any {
	fields := map[string]any{}
	if u.Username != nil {
		fields["username"] = *u.Username
		fields["username_ci"] = strings.ToLower(*u.Username)
	}
	if u.Email != nil {
		fields["email"] = strings.ToLower(*u.Email)
	}
	if u.Role != nil {
		fields["role"] = *u.Role
	}
	if u.Theme != nil {
		fields["theme"] = *u.Theme
	}
	if u.PasswordHash != nil {
		fields["password_hash"] = *u.PasswordHash
	}
	return fields
}

// Changes returns only the requested values that differ from cur. A new
// username also refreshes the case-insensitive shadow column.
func (u UserUpdate) Changes(cur *models.User) map[string]any {
	changes := map[string]any{}
	if u.Username != nil && *u.Username != cur.Username {
		changes["username"] = *u.Username
		changes["username_ci"] = strings.ToLower(*u.Username)
	}
	if u.Email != nil && strings.ToLower(*u.Email) != cur.Email {
		changes["email"] = strings.ToLower(*u.Email)
	}
	if u.Role != nil && *u.Role != cur.Role {
		changes["role"] = *u.Role
	}
	if u.Theme != nil && *u.Theme != cur.Theme {
		changes["theme"] = *u.Theme
	}
	if u.PasswordHash != nil && *u.PasswordHash != cur.PasswordHash {
		changes["password_hash"] = *u.PasswordHash
	}
	return changes
}

func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
