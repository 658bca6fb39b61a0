// Package review implements the grading use case: validate a graded review,
// run the memory model and persist the outcome atomically.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/fsrs"
	"github.com/example/studybot/pkg/models"
)

// Notifier receives the scheduled-card event after a successful grade.
// Implementations must isolate their own failures; Publish cannot fail the
// grading operation.
type Notifier interface {
	Publish(event models.CardScheduledEvent)
}

// Request is one graded review to process.
type Request struct {
	CardID         int64         `json:"card_id"`
	Rating         models.Rating `json:"rating"`
	ResponseTimeMs int           `json:"response_time_ms"`
	SessionID      *int64        `json:"session_id"`
}

// Result reports the before/after memory state of a processed review.
type Result struct {
	CardID               int64         `json:"card_id"`
	ItemID               int64         `json:"item_id"`
	Rating               models.Rating `json:"rating"`
	DifficultyBefore     float64       `json:"difficulty_before"`
	StabilityBefore      float64       `json:"stability_before"`
	RetrievabilityBefore float64       `json:"retrievability_before"`
	PhaseBefore          models.Phase  `json:"phase_before"`
	DifficultyAfter      float64       `json:"difficulty_after"`
	StabilityAfter       float64       `json:"stability_after"`
	RetrievabilityAfter  float64       `json:"retrievability_after"`
	PhaseAfter           models.Phase  `json:"phase_after"`
	IntervalDays         int           `json:"interval_days"`
	NextReviewDate       time.Time     `json:"next_review_date"`
	LapseCountUpdated    bool          `json:"lapse_count_updated"`
}

// Service coordinates one review: load state, run the engine, persist the new
// state plus one history record as a single transaction, then notify.
type Service struct {
	db       *sqlx.DB
	cards    *database.CardRepository
	history  *database.ReviewHistoryRepository
	engine   *fsrs.Engine
	notifier Notifier
}

// NewService wires the review service. notifier may be nil.
func NewService(db *sqlx.DB, cards *database.CardRepository, history *database.ReviewHistoryRepository, engine *fsrs.Engine, notifier Notifier) *Service {
	return &Service{
		db:       db,
		cards:    cards,
		history:  history,
		engine:   engine,
		notifier: notifier,
	}
}

// ScheduleReview grades one review. Validation and not-found failures are
// reported before any mutation; a persistence failure mid-transaction rolls
// everything back, so the card update, history append and lapse increment
// are always applied together or not at all.
func (s *Service) ScheduleReview(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	card, err := s.cards.GetByID(ctx, req.CardID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	before := fsrs.State{
		Difficulty:     card.Difficulty,
		Stability:      card.Stability,
		Retrievability: card.CurrentRetrievability(now),
		Phase:          card.Phase,
	}

	scheduled, err := s.engine.Schedule(before, req.Rating, now)
	if err != nil {
		return nil, err
	}

	updated := *card
	updated.Difficulty = scheduled.Difficulty
	updated.Stability = scheduled.Stability
	updated.Retrievability = scheduled.Retrievability
	updated.Phase = models.PhaseForReviewCount(card.ReviewCount + 1)
	updated.NextReviewDate = scheduled.NextReviewDate

	record := &models.ReviewRecord{
		CardID:               card.ID,
		ItemID:               card.ItemID,
		Rating:               req.Rating,
		ResponseTimeMs:       req.ResponseTimeMs,
		DifficultyBefore:     before.Difficulty,
		StabilityBefore:      before.Stability,
		RetrievabilityBefore: before.Retrievability,
		DifficultyAfter:      scheduled.Difficulty,
		StabilityAfter:       scheduled.Stability,
		RetrievabilityAfter:  scheduled.Retrievability,
		IntervalDays:         scheduled.IntervalDays,
		SessionID:            req.SessionID,
		ReviewedAt:           now,
	}

	isLapse := req.Rating == models.Again
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.cards.UpdateScheduleTx(ctx, tx, &updated, now); err != nil {
			return err
		}
		if isLapse {
			if err := s.cards.IncrementLapseTx(ctx, tx, card.ID); err != nil {
				return err
			}
		}
		return s.history.AppendTx(ctx, tx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("review transaction failed: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(models.CardScheduledEvent{
			CardID:            card.ID,
			ItemID:            card.ItemID,
			Rating:            req.Rating,
			ResponseTimeMs:    req.ResponseTimeMs,
			NewDifficulty:     scheduled.Difficulty,
			NewStability:      scheduled.Stability,
			NewRetrievability: scheduled.Retrievability,
			IntervalDays:      scheduled.IntervalDays,
			NextReviewDate:    scheduled.NextReviewDate,
			SessionID:         req.SessionID,
			OccurredAt:        now,
		})
	}

	return &Result{
		CardID:               card.ID,
		ItemID:               card.ItemID,
		Rating:               req.Rating,
		DifficultyBefore:     before.Difficulty,
		StabilityBefore:      before.Stability,
		RetrievabilityBefore: before.Retrievability,
		PhaseBefore:          before.Phase,
		DifficultyAfter:      scheduled.Difficulty,
		StabilityAfter:       scheduled.Stability,
		RetrievabilityAfter:  scheduled.Retrievability,
		PhaseAfter:           updated.Phase,
		IntervalDays:         scheduled.IntervalDays,
		NextReviewDate:       scheduled.NextReviewDate,
		LapseCountUpdated:    isLapse,
	}, nil
}

func validate(req Request) error {
	if req.CardID <= 0 {
		return fmt.Errorf("%w: card id must be positive", models.ErrValidation)
	}
	if !req.Rating.IsValid() {
		return fmt.Errorf("%w: rating %d", models.ErrValidation, int(req.Rating))
	}
	if req.ResponseTimeMs < 0 {
		return fmt.Errorf("%w: response time cannot be negative", models.ErrValidation)
	}
	return nil
}
