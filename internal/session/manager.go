// Package session orchestrates study sessions: it selects the candidate
// items for a session type, infers ratings from answers and latency, drives
// the review service per answer and tracks running statistics.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/review"
	"github.com/example/studybot/pkg/models"
)

// Rating inference thresholds for correct answers.
const (
	easyLatencyMs = 3000
	goodLatencyMs = 8000
)

// estimatedMinutesPerItem drives the initial remaining-time estimate.
const estimatedMinutesPerItem = 0.5

// Manager runs the session state machine: Created -> Active -> Completed or
// Cancelled. One manager serves any number of concurrent sessions through
// its injected registry.
type Manager struct {
	cards    *database.CardRepository
	items    *database.ItemRepository
	sessions *database.SessionRepository
	reviews  *review.Service
	registry *Registry
}

// NewManager wires a session manager.
func NewManager(cards *database.CardRepository, items *database.ItemRepository, sessions *database.SessionRepository, reviews *review.Service, registry *Registry) *Manager {
	return &Manager{
		cards:    cards,
		items:    items,
		sessions: sessions,
		reviews:  reviews,
		registry: registry,
	}
}

// Start opens a session: persists the session record, selects the ordered
// candidate queue for the configured type and begins progress tracking.
// Zero or out-of-range config values fall back to the defaults. An empty
// candidate pool yields a valid, immediately completable session.
func (m *Manager) Start(ctx context.Context, config models.SessionConfig, userID int64) (int64, error) {
	if !config.Type.IsValid() {
		return 0, fmt.Errorf("%w: session type %q", models.ErrValidation, config.Type)
	}
	if config.TargetRetention <= 0 || config.TargetRetention >= 1 {
		config.TargetRetention = models.DefaultTargetRetention
	}
	defaults := models.DefaultSessionConfig(config.Type)
	if config.MaxReviews <= 0 {
		config.MaxReviews = defaults.MaxReviews
	}
	if config.MaxNewCards <= 0 {
		config.MaxNewCards = defaults.MaxNewCards
	}
	if config.WeakLapseThreshold <= 0 {
		config.WeakLapseThreshold = defaults.WeakLapseThreshold
	}

	queue, err := m.selectCandidates(ctx, config, userID)
	if err != nil {
		return 0, err
	}

	sessionID, err := m.sessions.Create(ctx, userID, string(config.Type), config.TargetRetention, config.MaxReviews)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	m.registry.put(sessionID, &entry{
		userID: userID,
		config: config,
		queue:  queue,
		progress: &models.SessionProgress{
			SessionID:              sessionID,
			QuestionsTotal:         len(queue),
			EstimatedRemainingMins: estimateMinutes(len(queue)),
			StartTime:              now,
		},
	})
	return sessionID, nil
}

// NextItem returns the next queued item with its presentation metadata, or
// nil once the queue is exhausted.
func (m *Manager) NextItem(ctx context.Context, sessionID int64) (*models.ItemPresentation, error) {
	e, ok := m.registry.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}
	if e.position >= len(e.queue) {
		return nil, nil
	}
	q := e.queue[e.position]
	return presentation(q, e.position+1, len(e.queue)), nil
}

// SubmitRequest carries one answer within a session. Answer is nil when the
// learner skipped the item. Rating, when set, overrides the inferred one.
type SubmitRequest struct {
	SessionID      int64
	ItemID         int64
	Answer         *string
	ResponseTimeMs int
	Rating         *models.Rating
}

// SubmitAnswer grades one answer: checks correctness against the item's
// canonical answer, infers the rating when none is supplied, delegates to
// the review service and updates session statistics. On any failure the
// session progress is left untouched.
func (m *Manager) SubmitAnswer(ctx context.Context, req SubmitRequest) (*review.Result, error) {
	e, ok := m.registry.get(req.SessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, req.SessionID)
	}
	if req.ResponseTimeMs < 0 {
		return nil, fmt.Errorf("%w: response time cannot be negative", models.ErrValidation)
	}

	item, err := m.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	card, err := m.cards.GetByItem(ctx, req.ItemID, e.userID)
	if err != nil {
		return nil, err
	}

	isSkipped := req.Answer == nil
	isCorrect := !isSkipped && *req.Answer == item.Answer

	rating := inferRating(isCorrect, isSkipped, req.ResponseTimeMs)
	if req.Rating != nil {
		rating = *req.Rating
	}

	sessionID := req.SessionID
	result, err := m.reviews.ScheduleReview(ctx, review.Request{
		CardID:         card.ID,
		Rating:         rating,
		ResponseTimeMs: req.ResponseTimeMs,
		SessionID:      &sessionID,
	})
	if err != nil {
		return nil, err
	}

	m.recordAnswer(e, isCorrect, isSkipped, req.ResponseTimeMs)
	return result, nil
}

// Progress returns the live progress for an active session, with elapsed and
// estimated-remaining time refreshed.
func (m *Manager) Progress(sessionID int64) (*models.SessionProgress, error) {
	e, ok := m.registry.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}

	p := *e.progress
	elapsed := time.Since(p.StartTime)
	p.ElapsedMinutes = int(elapsed.Minutes())
	if p.QuestionsCompleted > 0 {
		perQuestion := float64(p.ElapsedMinutes) / float64(p.QuestionsCompleted)
		remaining := p.QuestionsTotal - p.QuestionsCompleted
		p.EstimatedRemainingMins = int(perQuestion * float64(remaining))
	}
	return &p, nil
}

// End completes a session: persists the final record with aggregate
// statistics, releases the in-memory tracking and returns the summary.
func (m *Manager) End(ctx context.Context, sessionID int64) (*models.SessionSummary, error) {
	return m.finish(ctx, sessionID, models.SessionCompleted)
}

// Cancel abandons a session. Statistics collected so far are still persisted.
func (m *Manager) Cancel(ctx context.Context, sessionID int64) (*models.SessionSummary, error) {
	return m.finish(ctx, sessionID, models.SessionCancelled)
}

func (m *Manager) finish(ctx context.Context, sessionID int64, status models.SessionStatus) (*models.SessionSummary, error) {
	e, ok := m.registry.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, sessionID)
	}

	p := e.progress
	p.ElapsedMinutes = int(time.Since(p.StartTime).Minutes())
	if err := m.sessions.Finish(ctx, sessionID, status, p); err != nil {
		return nil, err
	}
	m.registry.remove(sessionID)

	accuracy := 0.0
	if p.QuestionsCompleted > 0 {
		accuracy = float64(p.QuestionsCorrect) / float64(p.QuestionsCompleted) * 100
	}
	completion := 0.0
	if p.QuestionsTotal > 0 {
		completion = float64(p.QuestionsCompleted) / float64(p.QuestionsTotal) * 100
	}

	return &models.SessionSummary{
		SessionID:             sessionID,
		QuestionsCompleted:    p.QuestionsCompleted,
		CorrectAnswers:        p.QuestionsCorrect,
		IncorrectAnswers:      p.QuestionsIncorrect,
		Skipped:               p.QuestionsSkipped,
		AccuracyPercentage:    accuracy,
		CompletionRate:        completion,
		RetentionRate:         p.CurrentRetentionRate,
		TotalTimeMinutes:      p.ElapsedMinutes,
		AverageResponseTimeMs: p.AverageResponseTimeMs,
	}, nil
}

// selectCandidates builds the ordered study queue for a session type:
// Review takes due cards by ascending due time, Learn takes never-reviewed
// cards, WeakFocus takes chronically lapsed cards by descending lapse count.
func (m *Manager) selectCandidates(ctx context.Context, config models.SessionConfig, userID int64) ([]queued, error) {
	var (
		cards []models.Card
		err   error
	)
	switch config.Type {
	case models.SessionReview:
		cards, err = m.cards.GetDue(ctx, userID, config.MaxReviews)
	case models.SessionLearn:
		cards, err = m.cards.GetNew(ctx, userID, config.MaxNewCards)
	case models.SessionWeakFocus:
		cards, err = m.cards.GetWeak(ctx, userID, config.WeakLapseThreshold, config.MaxReviews)
	}
	if err != nil {
		return nil, err
	}

	queue := make([]queued, 0, len(cards))
	for _, card := range cards {
		item, err := m.items.GetByID(ctx, card.ItemID)
		if err != nil {
			// A card without its item is skipped, not fatal.
			continue
		}
		queue = append(queue, queued{card: card, item: *item})
	}
	return queue, nil
}

// recordAnswer folds one graded answer into the progress aggregate. Latency
// is averaged incrementally; the retention rate counts only non-skipped
// answers and defines an empty denominator as zero.
func (m *Manager) recordAnswer(e *entry, isCorrect, isSkipped bool, responseTimeMs int) {
	p := e.progress
	p.QuestionsCompleted++
	e.position++

	switch {
	case isSkipped:
		p.QuestionsSkipped++
	case isCorrect:
		p.QuestionsCorrect++
	default:
		p.QuestionsIncorrect++
	}

	if p.QuestionsCompleted == 1 {
		p.AverageResponseTimeMs = responseTimeMs
	} else {
		total := p.AverageResponseTimeMs * (p.QuestionsCompleted - 1)
		p.AverageResponseTimeMs = (total + responseTimeMs) / p.QuestionsCompleted
	}

	answered := p.QuestionsCompleted - p.QuestionsSkipped
	if answered > 0 {
		p.CurrentRetentionRate = float64(p.QuestionsCorrect) / float64(answered)
	} else {
		p.CurrentRetentionRate = 0.0
	}
}

// inferRating maps answer outcome and latency to a rating: skipped and wrong
// answers are lapses; correct answers grade Easy under 3s, Good under 8s,
// Hard otherwise.
func inferRating(isCorrect, isSkipped bool, responseTimeMs int) models.Rating {
	if isSkipped || !isCorrect {
		return models.Again
	}
	switch {
	case responseTimeMs < easyLatencyMs:
		return models.Easy
	case responseTimeMs < goodLatencyMs:
		return models.Good
	default:
		return models.Hard
	}
}

func presentation(q queued, number, total int) *models.ItemPresentation {
	var daysSince *int
	if q.card.LastReviewDate != nil {
		d := int(time.Since(*q.card.LastReviewDate).Hours() / 24)
		daysSince = &d
	}
	return &models.ItemPresentation{
		Item:                q.item,
		Card:                q.card,
		QuestionNumber:      number,
		TotalQuestions:      total,
		Category:            q.item.Category,
		DifficultyLabel:     q.card.DifficultyLabel(),
		LastReviewDate:      q.card.LastReviewDate,
		PredictedRetention:  q.card.PredictRetention(1),
		DaysSinceLastReview: daysSince,
	}
}

func estimateMinutes(numItems int) int {
	est := int(float64(numItems) * estimatedMinutesPerItem)
	if est < 1 {
		return 1
	}
	return est
}
