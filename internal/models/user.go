package models

import "time"

type User struct {
	Username     string    `json:"username" gorm:"primaryKey;type:varchar(100)"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	RoleName     string    `json:"role" gorm:"type:varchar(50);not null;default:'USER'"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Sightings []Sighting `json:"-" gorm:"foreignKey:Username;references:Username"`
	Comments  []Comment  `json:"-" gorm:"foreignKey:Username;references:Username"`
}

func (u *User) IsAdmin() bool {
	return u.RoleName == RoleAdmin
}
