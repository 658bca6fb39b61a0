package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/pkg/models"
)

// ReviewHistoryRepository handles the append-only review history. Rows are
// never updated or deleted; downstream analytics read from here.
type ReviewHistoryRepository struct {
	db *sqlx.DB
}

// NewReviewHistoryRepository creates a new repository instance.
func NewReviewHistoryRepository(db *sqlx.DB) *ReviewHistoryRepository {
	return &ReviewHistoryRepository{db: db}
}

// AppendTx inserts one review record within a transaction.
func (r *ReviewHistoryRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, rec *models.ReviewRecord) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO review_history (
			card_id, item_id, rating, response_time_ms,
			difficulty_before, stability_before, retrievability_before,
			difficulty_after, stability_after, retrievability_after,
			interval_days, session_id, reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.CardID, rec.ItemID, rec.Rating, rec.ResponseTimeMs,
		rec.DifficultyBefore, rec.StabilityBefore, rec.RetrievabilityBefore,
		rec.DifficultyAfter, rec.StabilityAfter, rec.RetrievabilityAfter,
		rec.IntervalDays, rec.SessionID, rec.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append review record: %v", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		rec.ID = id
	}
	return nil
}

// GetByCard returns the review history of one card, oldest first.
func (r *ReviewHistoryRepository) GetByCard(ctx context.Context, cardID int64) ([]models.ReviewRecord, error) {
	var records []models.ReviewRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM review_history WHERE card_id = $1 ORDER BY reviewed_at ASC, id ASC", cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card history: %v", err)
	}
	return records, nil
}

// GetBySession returns all reviews graded within one session.
func (r *ReviewHistoryRepository) GetBySession(ctx context.Context, sessionID int64) ([]models.ReviewRecord, error) {
	var records []models.ReviewRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM review_history WHERE session_id = $1 ORDER BY reviewed_at ASC, id ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %v", err)
	}
	return records, nil
}

// GetAll returns the full review history, oldest first.
func (r *ReviewHistoryRepository) GetAll(ctx context.Context) ([]models.ReviewRecord, error) {
	var records []models.ReviewRecord
	err := r.db.SelectContext(ctx, &records,
		"SELECT * FROM review_history ORDER BY reviewed_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get review history: %v", err)
	}
	return records, nil
}

// CountByCard returns total and lapse review counts for one card.
func (r *ReviewHistoryRepository) CountByCard(ctx context.Context, cardID int64) (total, lapses int, err error) {
	err = r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM review_history WHERE card_id = $1", cardID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count card reviews: %v", err)
	}
	err = r.db.GetContext(ctx, &lapses,
		"SELECT COUNT(*) FROM review_history WHERE card_id = $1 AND rating = $2", cardID, models.Again)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count card lapses: %v", err)
	}
	return total, lapses, nil
}
