package models

import "time"

// SessionType selects how a session's candidate items are chosen.
type SessionType string

const (
	SessionReview    SessionType = "review"     // Scheduled reviews, due items only.
	SessionLearn     SessionType = "learn"      // Items never reviewed.
	SessionWeakFocus SessionType = "weak_focus" // Items with chronic lapses.
)

// IsValid reports whether t is a known session type.
func (t SessionType) IsValid() bool {
	switch t {
	case SessionReview, SessionLearn, SessionWeakFocus:
		return true
	}
	return false
}

// SessionStatus tracks the session state machine:
// Created -> Active -> {Completed | Cancelled}.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// SessionConfig configures a study session.
type SessionConfig struct {
	Type            SessionType `json:"type"`
	MaxReviews      int         `json:"max_reviews"`
	MaxNewCards     int         `json:"max_new_cards"`
	TargetRetention float64     `json:"target_retention"`
	// WeakLapseThreshold is the minimum lapse count for weak-focus candidates.
	WeakLapseThreshold int `json:"weak_lapse_threshold"`
}

// DefaultSessionConfig returns a review session with the usual limits.
func DefaultSessionConfig(t SessionType) SessionConfig {
	return SessionConfig{
		Type:               t,
		MaxReviews:         50,
		MaxNewCards:        20,
		TargetRetention:    DefaultTargetRetention,
		WeakLapseThreshold: 3,
	}
}

// SessionProgress is the in-memory aggregate tracked for one active session.
// It is owned by the orchestrator's registry and discarded at session end.
type SessionProgress struct {
	SessionID              int64     `json:"session_id"`
	QuestionsTotal         int       `json:"questions_total"`
	QuestionsCompleted     int       `json:"questions_completed"`
	QuestionsCorrect       int       `json:"questions_correct"`
	QuestionsIncorrect     int       `json:"questions_incorrect"`
	QuestionsSkipped       int       `json:"questions_skipped"`
	AverageResponseTimeMs  int       `json:"average_response_time_ms"`
	CurrentRetentionRate   float64   `json:"current_retention_rate"`
	EstimatedRemainingMins int       `json:"estimated_remaining_minutes"`
	StartTime              time.Time `json:"start_time"`
	ElapsedMinutes         int       `json:"elapsed_minutes"`
}

// SessionSummary is the final accounting returned when a session ends.
type SessionSummary struct {
	SessionID             int64   `json:"session_id"`
	QuestionsCompleted    int     `json:"questions_completed"`
	CorrectAnswers        int     `json:"correct_answers"`
	IncorrectAnswers      int     `json:"incorrect_answers"`
	Skipped               int     `json:"skipped"`
	AccuracyPercentage    float64 `json:"accuracy_percentage"`
	CompletionRate        float64 `json:"completion_rate"`
	RetentionRate         float64 `json:"retention_rate"`
	TotalTimeMinutes      int     `json:"total_time_minutes"`
	AverageResponseTimeMs int     `json:"average_response_time_ms"`
}

// LearningSession is the persisted session record.
type LearningSession struct {
	ID                    int64      `json:"id" db:"id"`
	UserID                int64      `json:"user_id" db:"user_id"`
	SessionType           string     `json:"session_type" db:"session_type"`
	Status                string     `json:"status" db:"status"`
	TargetRetention       float64    `json:"target_retention" db:"target_retention"`
	MaxReviews            int        `json:"max_reviews" db:"max_reviews"`
	StartTime             time.Time  `json:"start_time" db:"start_time"`
	EndTime               *time.Time `json:"end_time" db:"end_time"`
	DurationSeconds       int        `json:"duration_seconds" db:"duration_seconds"`
	QuestionsReviewed     int        `json:"questions_reviewed" db:"questions_reviewed"`
	QuestionsCorrect      int        `json:"questions_correct" db:"questions_correct"`
	AverageResponseTimeMs int        `json:"average_response_time_ms" db:"average_response_time_ms"`
	RetentionRate         float64    `json:"retention_rate" db:"retention_rate"`
}

// ItemPresentation carries the next item of a session together with the
// metadata the presentation layer shows alongside it.
type ItemPresentation struct {
	Item                Item       `json:"item"`
	Card                Card       `json:"card"`
	QuestionNumber      int        `json:"question_number"`
	TotalQuestions      int        `json:"total_questions"`
	Category            string     `json:"category"`
	DifficultyLabel     string     `json:"difficulty_label"`
	LastReviewDate      *time.Time `json:"last_review_date"`
	PredictedRetention  float64    `json:"predicted_retention"`
	DaysSinceLastReview *int       `json:"days_since_last_review"`
}
