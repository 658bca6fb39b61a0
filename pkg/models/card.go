package models

import (
	"math"
	"time"
)

// Card holds the per-(learner,item) memory state driving review scheduling.
//
// Difficulty stays within [1,10] and stability never drops below 0.1; both
// bounds are enforced by the memory model engine, the only writer of this
// state after a graded review.
type Card struct {
	ID             int64      `json:"id" db:"id"`
	ItemID         int64      `json:"item_id" db:"item_id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	Difficulty     float64    `json:"difficulty" db:"difficulty"`
	Stability      float64    `json:"stability" db:"stability"`
	Retrievability float64    `json:"retrievability" db:"retrievability"`
	Phase          Phase      `json:"phase" db:"phase"`
	ReviewCount    int        `json:"review_count" db:"review_count"`
	LapseCount     int        `json:"lapse_count" db:"lapse_count"`
	LastReviewDate *time.Time `json:"last_review_date" db:"last_review_date"`
	NextReviewDate time.Time  `json:"next_review_date" db:"next_review_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewCard returns the initial memory state for an item entering study:
// middling difficulty, one-day stability, perfect retrievability, due now.
func NewCard(itemID, userID int64, now time.Time) *Card {
	return &Card{
		ItemID:         itemID,
		UserID:         userID,
		Difficulty:     5.0,
		Stability:      1.0,
		Retrievability: 1.0,
		Phase:          PhaseNew,
		NextReviewDate: now,
	}
}

// CurrentRetrievability computes the recall probability at the given moment,
// R = exp(-t/S) with t in days since the last review. A never-reviewed card,
// or one with non-positive stability, is fully retrievable.
func (c *Card) CurrentRetrievability(now time.Time) float64 {
	if c.LastReviewDate == nil || c.Stability <= 0 {
		return 1.0
	}
	elapsedDays := now.Sub(*c.LastReviewDate).Hours() / 24
	return math.Exp(-elapsedDays / c.Stability)
}

// PredictRetention estimates the recall probability the given number of days
// ahead. Returns 0 when stability is not positive.
func (c *Card) PredictRetention(daysAhead float64) float64 {
	if c.Stability <= 0 {
		return 0.0
	}
	return math.Exp(-daysAhead / c.Stability)
}

// Due reports whether the card is due at the given moment. Cards that were
// never reviewed are always due.
func (c *Card) Due(now time.Time) bool {
	return c.LastReviewDate == nil || !c.NextReviewDate.After(now)
}

// DifficultyLabel is a qualitative label for presentation, derived from the
// review and lapse counts.
func (c *Card) DifficultyLabel() string {
	switch {
	case c.ReviewCount == 0:
		return "New"
	case c.LapseCount >= 5:
		return "Very Hard"
	case c.LapseCount >= 3:
		return "Hard"
	case c.ReviewCount < 3:
		return "Learning"
	default:
		return "Review"
	}
}
