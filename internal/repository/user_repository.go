package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/pandora-pm/internal/database"
	apierrors "github.com/yukikurage/pandora-pm/internal/errors"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	PrepareUser(user)
	err := r.db.WithContext(ctx).Create(user).Error
	return translate("create user", "user", err)
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !utils.ValidID(id) {
		return nil, apierrors.NotFound("user")
	}
	return r.first(ctx, "id = ?", id)
}

// FindByUsername finds a user by username, ignoring case
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username_ci = ?", strings.ToLower(strings.TrimSpace(username)))
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *GormUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate("find user", "user", err)
	}
	return &user, nil
}

// List lists users ordered by username
func (r *GormUserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate("count users", "user", err)
	}

	users := []models.User{}
	err := db.Scopes(database.Paginate(utils.PaginationParams{Offset: offset, Limit: limit})).
		Order("username_ci ASC").
		Find(&users).Error
	if err != nil {
		return nil, 0, translate("list users", "user", err)
	}
	return users, total, nil
}

// Update applies a partial update inside one transaction
func (r *GormUserRepository) Update(ctx context.Context, id string, upd UserUpdate) (UpdateResult, error) {
	if !utils.ValidID(id) {
		return UpdateResult{}, apierrors.NotFound("user")
	}

	var result UpdateResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.User
		if err := tx.First(&cur, "id = ?", id).Error; err != nil {
			return err
		}
		result.Matched = true

		changes := upd.Changes(&cur)
		if len(changes) == 0 {
			return nil
		}
		result.Modified = true
		changes["updated_at"] = utils.Now()

		return tx.Model(&models.User{}).Where("id = ?", id).Updates(changes).Error
	})
	if err != nil {
		return UpdateResult{}, translate("update user", "user", err)
	}
	return result, nil
}

// Delete deletes a user
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	if !utils.ValidID(id) {
		return apierrors.NotFound("user")
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return translate("delete user", "user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apierrors.NotFound("user")
	}
	return nil
}

// Count counts all users
func (r *GormUserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, translate("count users", "user", err)
}

// CountAdmins counts users holding the admin role
func (r *GormUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error
	return count, translate("count admins", "user", err)
}

// PrepareUser fills the generated and derived fields of a new user.
func PrepareUser(user *models.User) {
	if user.ID == "" {
		user.ID = utils.NewID()
	}
	user.Username = strings.TrimSpace(user.Username)
	user.UsernameCI = strings.ToLower(user.Username)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.Theme == "" {
		user.Theme = models.ThemePandora
	}
	now := utils.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
}
