package store

import (
	"time"

	"appliance-alarm-backend/internal/model"
)

// Outcome reports whether a targeted write found its target.
type Outcome int

const (
	// Applied means the write matched an existing record.
	Applied Outcome = iota
	// NoMatch means no record matched; nothing was written.
	NoMatch
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "no_match"
}

// AlarmView is the flattened projection of one alarm returned to clients.
type AlarmView struct {
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
	Threshold float64   `json:"threshold"`
	Device    string    `json:"device"`
	Value     float64   `json:"value"`
	Type      string    `json:"type"`
}

func viewOf(a model.Alarm) AlarmView {
	return AlarmView{
		CreatedAt: a.CreatedAt,
		Read:      a.Read,
		Threshold: a.Threshold,
		Device:    a.Device,
		Value:     a.Value,
		Type:      a.Type,
	}
}
