package model

import "time"

// Role is a user's access level.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleSiteManager Role = "site_manager"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSiteManager:
		return true
	}
	return false
}

// User is a dashboard account. Site managers are scoped to one project.
type User struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Username          string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Name              string    `gorm:"size:200" json:"name"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	Role              Role      `gorm:"size:20;not null" json:"role"`
	AssignedProjectID *uint     `gorm:"index" json:"assignedProjectId"`
	IsActive          bool      `gorm:"not null" json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
