package services

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/yukikurage/pandora-pm/internal/access"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/repository"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// ErrInvalidRole is returned for roles outside user and admin.
var ErrInvalidRole = apierrors.Validation("role", "must be user or admin")

// UserService is the admin console over accounts.
type UserService struct {
	users     repository.UserRepository
	projects  repository.ProjectRepository
	evaluator *access.Evaluator
	log       logr.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, projects repository.ProjectRepository, evaluator *access.Evaluator, log logr.Logger) *UserService {
	return &UserService{
		users:     users,
		projects:  projects,
		evaluator: evaluator,
		log:       log,
	}
}

// SystemStats are the admin console counters.
type SystemStats struct {
	Users    int64 `json:"users"`
	Projects int64 `json:"projects"`
	Tasks    int64 `json:"tasks"`
}

func (s *UserService) authorize(p access.Principal) error {
	return s.evaluator.Authorize(p, nil, access.ManageUsers, "")
}

// ListUsers returns one page of users ordered by username.
func (s *UserService) ListUsers(ctx context.Context, p access.Principal, page utils.PaginationParams) ([]models.User, int64, error) {
	if err := s.authorize(p); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, page.Offset, page.Limit)
}

// GetUser returns any account.
func (s *UserService) GetUser(ctx context.Context, p access.Principal, id string) (*models.User, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// Stats counts users, projects and tasks.
func (s *UserService) Stats(ctx context.Context, p access.Principal) (SystemStats, error) {
	if err := s.authorize(p); err != nil {
		return SystemStats{}, err
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return SystemStats{}, err
	}
	ps, err := s.projects.Stats(ctx)
	if err != nil {
		return SystemStats{}, err
	}
	return SystemStats{Users: users, Projects: ps.Projects, Tasks: ps.Tasks}, nil
}

// AdminUpdateUserInput holds the fields an admin may edit on an account.
type AdminUpdateUserInput struct {
	Username *string
	Email    *string
	Role     *models.Role
}

// UpdateUser edits another account. A role change on the caller's own
// account is ignored; SetRole reports that case explicitly.
func (s *UserService) UpdateUser(ctx context.Context, p access.Principal, id string, input AdminUpdateUserInput) (*models.User, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var upd repository.UserUpdate
	if input.Username != nil {
		username, err := normalizeUsername(*input.Username)
		if err != nil {
			return nil, err
		}
		upd.Username = &username
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		upd.Email = &email
	}
	if input.Role != nil && user.ID != p.UserID {
		if err := s.checkRoleChange(ctx, user, *input.Role); err != nil {
			return nil, err
		}
		upd.Role = input.Role
	}

	if err := checkIdentity(ctx, s.users, user, upd); err != nil {
		return nil, err
	}

	updated, err := applyUserUpdate(ctx, s.users, user.ID, upd)
	if err != nil {
		return nil, err
	}
	s.log.Info("user updated by admin", "adminID", p.UserID, "userID", user.ID)
	return updated, nil
}

// SetRole is the quick role change of the admin console.
func (s *UserService) SetRole(ctx context.Context, p access.Principal, id string, role models.Role) (*models.User, error) {
	if err := s.authorize(p); err != nil {
		return nil, err
	}
	if id == p.UserID && role != models.RoleAdmin {
		return nil, apierrors.ErrSelfDemotion
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRoleChange(ctx, user, role); err != nil {
		return nil, err
	}

	updated, err := applyUserUpdate(ctx, s.users, user.ID, repository.UserUpdate{Role: &role})
	if err != nil {
		return nil, err
	}
	s.log.Info("user role changed", "adminID", p.UserID, "userID", user.ID, "role", role)
	return updated, nil
}

// checkRoleChange keeps at least one administrator in the system.
func (s *UserService) checkRoleChange(ctx context.Context, user *models.User, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if user.IsAdmin() && role != models.RoleAdmin {
		return s.ensureAnotherAdmin(ctx)
	}
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := s.users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return apierrors.ErrLastAdmin
	}
	return nil
}

// DeleteUser removes an account and clears it from every task it was
// assigned to. Projects it owns are kept.
func (s *UserService) DeleteUser(ctx context.Context, p access.Principal, id string) error {
	if err := s.authorize(p); err != nil {
		return err
	}
	if id == p.UserID {
		return apierrors.ErrSelfDeletion
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return err
	}

	cleared, err := s.projects.UnassignUser(ctx, user.ID)
	if err != nil {
		s.log.Error(err, "failed to unassign deleted user", "userID", user.ID)
		return nil
	}
	s.log.Info("user deleted", "adminID", p.UserID, "userID", user.ID, "unassigned", cleared)
	return nil
}
