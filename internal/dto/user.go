package dto

import (
	"time"

	"github.com/samber/lo"
	"github.com/yukikurage/pandora-pm/internal/models"
	"github.com/yukikurage/pandora-pm/internal/services"
	"github.com/yukikurage/pandora-pm/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        string       `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Role      models.Role  `json:"role"`
	Theme     models.Theme `json:"theme"`
	CreatedAt time.Time    `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// StatsDTO holds the admin console counters
type StatsDTO struct {
	Users    int64 `json:"users"`
	Projects int64 `json:"projects"`
	Tasks    int64 `json:"tasks"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Theme:     user.Theme,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserListResponse converts one page of users
func ToUserListResponse(users []models.User, page utils.PaginationParams, total int64) UserListResponse {
	return UserListResponse{
		Users:      lo.Map(users, func(u models.User, _ int) UserDTO { return ToUserDTO(u) }),
		Pagination: page.Response(total),
	}
}

func ToStatsDTO(s services.SystemStats) StatsDTO {
	return StatsDTO{Users: s.Users, Projects: s.Projects, Tasks: s.Tasks}
}
