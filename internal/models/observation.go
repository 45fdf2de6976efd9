package models

import "time"

// Observation is a single benchmark bond yield reading from one source.
// It is produced fresh on every run and never persisted on its own.
type Observation struct {
	Value      float64   `json:"value"`  // percentage, expected > 0
	Source     string    `json:"source"` // provider identifier, or "fallback"
	ObservedAt time.Time `json:"observed_at"`
}
