package models

import "time"

// Sighting is a geolocated photo report owned by the user who created it.
type Sighting struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PhotoURL    string    `json:"photoUrl" gorm:"type:text;not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Latitude    float64   `json:"latitude" gorm:"not null"`
	Longitude   float64   `json:"longitude" gorm:"not null"`
	Address     *string   `json:"address,omitempty" gorm:"type:varchar(255)"`
	Username    string    `json:"username" gorm:"type:varchar(100);not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Comments []Comment `json:"-" gorm:"foreignKey:SightingID;references:ID"`
}
