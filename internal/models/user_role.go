package models

import "time"

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"

	// DefaultRoleName is assigned at signup and re-assigned to users whose
	// role gets deleted.
	DefaultRoleName = RoleUser
)

// UserRole names are uppercase-only; validation happens before writes.
type UserRole struct {
	Name      string    `json:"roleName" gorm:"primaryKey;type:varchar(50)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Users []User `json:"-" gorm:"foreignKey:RoleName;references:Name"`
}

// DefaultRoles get seeded on first run.
func DefaultRoles() []UserRole {
	return []UserRole{
		{Name: RoleAdmin},
		{Name: RoleUser},
	}
}
