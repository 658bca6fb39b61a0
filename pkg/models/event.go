package models

import "time"

// CardScheduledEvent is published after every successfully graded review.
// Consumers (notifiers, analytics) receive the new schedule; they never
// mutate card state themselves.
type CardScheduledEvent struct {
	CardID             int64     `json:"card_id"`
	ItemID             int64     `json:"item_id"`
	Rating             Rating    `json:"rating"`
	ResponseTimeMs     int       `json:"response_time_ms"`
	NewDifficulty      float64   `json:"new_difficulty"`
	NewStability       float64   `json:"new_stability"`
	NewRetrievability  float64   `json:"new_retrievability"`
	IntervalDays       int       `json:"interval_days"`
	NextReviewDate     time.Time `json:"next_review_date"`
	SessionID          *int64    `json:"session_id"`
	OccurredAt         time.Time `json:"occurred_at"`
}
