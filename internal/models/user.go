package models

import (
	"time"

	"github.com/samber/lo"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Theme is the UI palette chosen on the profile page.
type Theme string

const (
	ThemePandora       Theme = "pandora"
	ThemeAmethystMoon  Theme = "amethyst_moon"
	ThemeFrostCrystal  Theme = "frost_crystal"
	ThemeNoirFlow      Theme = "noir_flow"
	ThemeKernelMindset Theme = "kernel_mindset"
)

var Themes = []Theme{ThemePandora, ThemeAmethystMoon, ThemeFrostCrystal, ThemeNoirFlow, ThemeKernelMindset}

func (t Theme) Valid() bool {
	return lo.Contains(Themes, t)
}

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Username     string    `gorm:"type:varchar(50);not null" bson:"username" json:"username"`
	UsernameCI   string    `gorm:"column:username_ci;type:varchar(50);uniqueIndex;not null" bson:"username_ci" json:"-"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" bson:"password_hash" json:"-"`
	Role         Role      `gorm:"type:varchar(10);not null;default:'user';index" bson:"role" json:"role"`
	Theme        Theme     `gorm:"type:varchar(30);not null;default:'pandora'" bson:"theme" json:"theme"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
