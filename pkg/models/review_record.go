package models

import "time"

// ReviewRecord is one row of the append-only review history: the rating and
// latency of a graded review plus the full before/after memory-state
// snapshot. Records are never updated or deleted by the core.
type ReviewRecord struct {
	ID                   int64     `json:"id" db:"id"`
	CardID               int64     `json:"card_id" db:"card_id"`
	ItemID               int64     `json:"item_id" db:"item_id"`
	Rating               Rating    `json:"rating" db:"rating"`
	ResponseTimeMs       int       `json:"response_time_ms" db:"response_time_ms"`
	DifficultyBefore     float64   `json:"difficulty_before" db:"difficulty_before"`
	StabilityBefore      float64   `json:"stability_before" db:"stability_before"`
	RetrievabilityBefore float64   `json:"retrievability_before" db:"retrievability_before"`
	DifficultyAfter      float64   `json:"difficulty_after" db:"difficulty_after"`
	StabilityAfter       float64   `json:"stability_after" db:"stability_after"`
	RetrievabilityAfter  float64   `json:"retrievability_after" db:"retrievability_after"`
	IntervalDays         int       `json:"interval_days" db:"interval_days"`
	SessionID            *int64    `json:"session_id" db:"session_id"`
	ReviewedAt           time.Time `json:"reviewed_at" db:"reviewed_at"`
}
