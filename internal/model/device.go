package model

import (
	"time"

	"gorm.io/datatypes"
)

// Device is a registered appliance owned by a single user.
type Device struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:128;not null" json:"name"`
	UserID    string         `gorm:"index;size:36;not null" json:"userId"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
