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

// SessionRepository handles persisted learning-session records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new active session and returns its ID.
func (r *SessionRepository) Create(ctx context.Context, userID int64, sessionType string, targetRetention float64, maxReviews int) (int64, error) {
	start := time.Now().UTC()
	id, err := insertID(ctx, r.db, `
		INSERT INTO learning_sessions (
			user_id, session_type, status, target_retention, max_reviews, start_time
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, sessionType, models.SessionActive, targetRetention, maxReviews, start)
	if err != nil {
		return 0, fmt.Errorf("failed to create learning session: %v", err)
	}
	return id, nil
}

// GetByID returns a session record by ID, or models.ErrNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.LearningSession, error) {
	var s models.LearningSession
	err := r.db.GetContext(ctx, &s, "SELECT * FROM learning_sessions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learning session: %v", err)
	}
	return &s, nil
}

// Finish closes a session: records end time, duration and the aggregate
// statistics computed from the session's review history.
func (r *SessionRepository) Finish(ctx context.Context, id int64, status models.SessionStatus, progress *models.SessionProgress) error {
	end := time.Now().UTC()
	duration := int(end.Sub(progress.StartTime.UTC()).Seconds())
	_, err := r.db.ExecContext(ctx, `
		UPDATE learning_sessions SET
			status = $1,
			end_time = $2,
			duration_seconds = $3,
			questions_reviewed = $4,
			questions_correct = $5,
			average_response_time_ms = $6,
			retention_rate = $7
		WHERE id = $8`,
		status, end, duration,
		progress.QuestionsCompleted, progress.QuestionsCorrect,
		progress.AverageResponseTimeMs, progress.CurrentRetentionRate, id)
	if err != nil {
		return fmt.Errorf("failed to finish learning session: %v", err)
	}
	return nil
}
