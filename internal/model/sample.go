package model

import "time"

// Sample is a single typed reading taken from an appliance.
type Sample struct {
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
