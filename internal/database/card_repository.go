package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/studybot/pkg/models"
)

// CardRepository handles database operations for per-item memory state.
// All mutations after a graded review go through the transactional methods,
// driven by the review service.
type CardRepository struct {
	db *sqlx.DB
}

// NewCardRepository creates a new repository instance.
func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

// GetByID returns a card by ID, or models.ErrNotFound.
func (r *CardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card, "SELECT * FROM cards WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %v", err)
	}
	return &card, nil
}

// GetByItem returns the card for an (item, user) pair, or models.ErrNotFound.
func (r *CardRepository) GetByItem(ctx context.Context, itemID, userID int64) (*models.Card, error) {
	var card models.Card
	err := r.db.GetContext(ctx, &card,
		"SELECT * FROM cards WHERE item_id = $1 AND user_id = $2", itemID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card for item %d", models.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by item: %v", err)
	}
	return &card, nil
}

// Create inserts a new card. The existing card is returned unchanged when
// one already exists for the (item, user) pair.
func (r *CardRepository) Create(ctx context.Context, card *models.Card) (*models.Card, error) {
	existing, err := r.GetByItem(ctx, card.ItemID, card.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	id, err := insertID(ctx, r.db, `
		INSERT INTO cards (
			item_id, user_id, difficulty, stability, retrievability,
			phase, review_count, lapse_count, last_review_date, next_review_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		card.ItemID, card.UserID, card.Difficulty, card.Stability, card.Retrievability,
		card.Phase, card.ReviewCount, card.LapseCount, card.LastReviewDate, card.NextReviewDate,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %v", err)
	}
	card.ID = id
	card.CreatedAt = now
	card.UpdatedAt = now
	return card, nil
}

// GetDue returns cards due for review, ordered by ascending due time.
// Never-reviewed cards are eligible regardless of their timestamp.
func (r *CardRepository) GetDue(ctx context.Context, userID int64, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `
		SELECT * FROM cards
		WHERE user_id = $1 AND (last_review_date IS NULL OR next_review_date <= $2)
		ORDER BY next_review_date ASC
		LIMIT $3`,
		userID, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %v", err)
	}
	return cards, nil
}

// GetAll returns every card for a user ordered by ID.
func (r *CardRepository) GetAll(ctx context.Context, userID int64) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards,
		"SELECT * FROM cards WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %v", err)
	}
	return cards, nil
}

// GetNew returns cards that have never been reviewed.
func (r *CardRepository) GetNew(ctx context.Context, userID int64, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `
		SELECT * FROM cards
		WHERE user_id = $1 AND review_count = 0
		ORDER BY id ASC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get new cards: %v", err)
	}
	return cards, nil
}

// GetWeak returns cards whose lapse count reaches the threshold, most-lapsed
// first.
func (r *CardRepository) GetWeak(ctx context.Context, userID int64, lapseThreshold, limit int) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.SelectContext(ctx, &cards, `
		SELECT * FROM cards
		WHERE user_id = $1 AND lapse_count >= $2
		ORDER BY lapse_count DESC
		LIMIT $3`,
		userID, lapseThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get weak cards: %v", err)
	}
	return cards, nil
}

// CountDue returns the number of currently due cards for a user.
func (r *CardRepository) CountDue(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM cards
		WHERE user_id = $1 AND (last_review_date IS NULL OR next_review_date <= $2)`,
		userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %v", err)
	}
	return count, nil
}

// UpdateScheduleTx writes the post-review memory state within a transaction:
// difficulty, stability, retrievability, phase and the new due date, and
// bumps the review count.
func (r *CardRepository) UpdateScheduleTx(ctx context.Context, tx *sqlx.Tx, card *models.Card, reviewedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE cards SET
			difficulty = $1,
			stability = $2,
			retrievability = $3,
			phase = $4,
			review_count = review_count + 1,
			last_review_date = $5,
			next_review_date = $6,
			updated_at = $5
		WHERE id = $7`,
		card.Difficulty, card.Stability, card.Retrievability, card.Phase,
		reviewedAt, card.NextReviewDate, card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card schedule: %v", err)
	}
	return nil
}

// IncrementLapseTx bumps a card's lapse count within a transaction.
func (r *CardRepository) IncrementLapseTx(ctx context.Context, tx *sqlx.Tx, cardID int64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE cards SET lapse_count = lapse_count + 1 WHERE id = $1", cardID)
	if err != nil {
		return fmt.Errorf("failed to increment lapse count: %v", err)
	}
	return nil
}

// Delete removes a card. Used only by the explicit learner-progress reset.
func (r *CardRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cards WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %v", err)
	}
	return nil
}
