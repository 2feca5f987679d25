package search

import "time"

// Recency boost defaults.
const (
	DefaultRecencyBoostDays   = 30
	DefaultRecencyBoostFactor = 1.10
)

// ApplyRecencyBoost multiplies score by boostFactor when createdAt falls within
// boostDays of now (inclusive). Documents dated in the future count as recent.
// Step function: no stacking, no decay.
func ApplyRecencyBoost(score float64, createdAt *time.Time, now time.Time, boostDays int, boostFactor float64) float64 {
	if createdAt == nil {
		return score
	}
	window := time.Duration(boostDays) * 24 * time.Hour
	if now.Sub(*createdAt) <= window {
		return score * boostFactor
	}
	return score
}
