package repository

import (
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/pandora-pm/internal/constants"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// ValidateNewProject checks a project before insertion and fills defaults.
func ValidateNewProject(p *models.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateName("name", p.Name, constants.MaxProjectNameLength); err != nil {
		return err
	}
	if !utils.ValidID(p.OwnerID) {
		return apierrors.Validation("owner_id", "must be a valid user id")
	}
	if p.Status == "" {
		p.Status = models.DefaultProjectStatus
	}
	if utf8.RuneCountInString(p.Status) > constants.MaxProjectStatusLength {
		return apierrors.Validation("status", "is too long")
	}
	return nil
}

// ValidateProjectUpdate checks the supplied fields of a project update.
func ValidateProjectUpdate(u *ProjectUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateName("name", name, constants.MaxProjectNameLength); err != nil {
			return err
		}
		u.Name = &name
	}
	if u.Status != nil {
		if strings.TrimSpace(*u.Status) == "" {
			return apierrors.Validation("status", "is required")
		}
		if utf8.RuneCountInString(*u.Status) > constants.MaxProjectStatusLength {
			return apierrors.Validation("status", "is too long")
		}
	}
	return nil
}

// ValidateTaskInput checks a new task and fills the default status.
func ValidateTaskInput(in *TaskInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName("name", in.Name, constants.MaxTaskNameLength); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.TaskStatusTodo
	}
	if err := ValidateTaskStatus(in.Status); err != nil {
		return err
	}
	if in.AssignedTo != nil && *in.AssignedTo == "" {
		in.AssignedTo = nil
	}
	if in.WorkPackageID != nil && *in.WorkPackageID == "" {
		in.WorkPackageID = nil
	}
	return nil
}

// ValidateTaskUpdate checks the supplied fields of a task update.
func ValidateTaskUpdate(u *TaskUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateName("name", name, constants.MaxTaskNameLength); err != nil {
			return err
		}
		u.Name = &name
	}
	if u.Status != nil {
		if err := ValidateTaskStatus(*u.Status); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTaskStatus rejects values outside the closed status set.
func ValidateTaskStatus(s models.TaskStatus) error {
	if !s.Valid() {
		return &apierrors.Error{
			Kind:    apierrors.KindValidation,
			Code:    apierrors.ErrCodeInvalidStatus,
			Field:   "status",
			Message: "must be one of To Do, In Progress, Blocked, In Review, Done",
		}
	}
	return nil
}

func validateName(field, value string, max int) error {
	if value == "" {
		return apierrors.Validation(field, "is required")
	}
	if utf8.RuneCountInString(value) > max {
		return apierrors.Validation(field, "is too long")
	}
	return nil
}
