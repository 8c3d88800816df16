package model

import (
	"time"

	"gorm.io/datatypes"
)

// Thresholds maps a measurement type (e.g. "temperature") to its configured limit.
type Thresholds map[string]float64

// User owns devices and the alarm history raised on their behalf.
type User struct {
	ID         string                         `gorm:"primaryKey;size:36" json:"id"`
	Name       string                         `gorm:"size:128" json:"name"`
	Email      string                         `gorm:"size:256" json:"email"`
	Thresholds datatypes.JSONType[Thresholds] `json:"thresholds"`
	CreatedAt  time.Time                      `json:"createdAt"`
	UpdatedAt  time.Time                      `json:"updatedAt"`

	// Associations
	Alarms []Alarm `gorm:"foreignKey:UserID" json:"-"`
}
