package model

import "time"

// CarEvent is published whenever a car changes. Car is nil for deletions.
type CarEvent struct {
	Type      string    `json:"type"`
	CarID     string    `json:"car_id"`
	Owner     string    `json:"-"`
	Car       *Car      `json:"car,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrphanedImage is an object whose release failed and is waiting for a retry.
type OrphanedImage struct {
	PublicID   string    `json:"public_id"`
	Attempts   int       `json:"attempts"`
	Reason     string    `json:"reason"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
