// Package analytics contains read-only consumers of the card and history
// repositories. Nothing here writes card state; all memory-state mutation
// stays behind the review service.
package analytics

import (
	"context"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/pkg/models"
)

// LeechSeverity grades how chronic a leech card is.
type LeechSeverity string

const (
	SeverityMild     LeechSeverity = "mild"     // 3-5 lapses
	SeverityModerate LeechSeverity = "moderate" // 6-8 lapses
	SeveritySevere   LeechSeverity = "severe"   // 9+ lapses
)

const (
	mildLapses     = 3
	moderateLapses = 6
	severeLapses   = 9
)

// Leech describes one chronically failed card.
type Leech struct {
	Card        models.Card   `json:"card"`
	Item        models.Item   `json:"item"`
	Severity    LeechSeverity `json:"severity"`
	LapseCount  int           `json:"lapse_count"`
	SuccessRate float64       `json:"success_rate"`
}

// LeechDetector finds cards with chronically high lapse rates.
type LeechDetector struct {
	cards   *database.CardRepository
	items   *database.ItemRepository
	history *database.ReviewHistoryRepository
}

// NewLeechDetector creates a detector over the given repositories.
func NewLeechDetector(cards *database.CardRepository, items *database.ItemRepository, history *database.ReviewHistoryRepository) *LeechDetector {
	return &LeechDetector{cards: cards, items: items, history: history}
}

// Detect returns the leeches for a user, most-lapsed first. threshold is the
// minimum lapse count; values below the mild tier are raised to it.
func (d *LeechDetector) Detect(ctx context.Context, userID int64, threshold int) ([]Leech, error) {
	if threshold < mildLapses {
		threshold = mildLapses
	}

	cards, err := d.cards.GetWeak(ctx, userID, threshold, 500)
	if err != nil {
		return nil, err
	}

	leeches := make([]Leech, 0, len(cards))
	for _, card := range cards {
		item, err := d.items.GetByID(ctx, card.ItemID)
		if err != nil {
			continue
		}
		total, lapses, err := d.history.CountByCard(ctx, card.ID)
		if err != nil {
			return nil, err
		}
		successRate := 0.0
		if total > 0 {
			successRate = float64(total-lapses) / float64(total)
		}
		leeches = append(leeches, Leech{
			Card:        card,
			Item:        *item,
			Severity:    severityFor(card.LapseCount),
			LapseCount:  card.LapseCount,
			SuccessRate: successRate,
		})
	}
	return leeches, nil
}

func severityFor(lapseCount int) LeechSeverity {
	switch {
	case lapseCount >= severeLapses:
		return SeveritySevere
	case lapseCount >= moderateLapses:
		return SeverityModerate
	default:
		return SeverityMild
	}
}
