package model

import "time"

// Alarm is one entry of a user's alarm history. Only Read ever changes after
// insertion, and only from false to true.
type Alarm struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement" json:"-"` // insertion order
	UserID    string    `gorm:"index:idx_alarms_user_created,priority:1;size:36;not null" json:"-"`
	CreatedAt time.Time `gorm:"index:idx_alarms_user_created,priority:2;not null" json:"createdAt"`
	Device    string    `gorm:"size:128;not null" json:"device"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Threshold float64   `gorm:"not null" json:"threshold"`
	Value     float64   `gorm:"not null" json:"value"`
	Read      bool      `gorm:"column:is_read;not null;default:false" json:"read"`
}
