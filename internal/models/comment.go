package models

import "time"

type Comment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	Username   string    `json:"username" gorm:"column:fk_username;type:varchar(100);not null;index"`
	SightingID uint      `json:"sightingId" gorm:"column:fk_sighting_id;not null;index"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
