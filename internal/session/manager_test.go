package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/fsrs"
	"github.com/example/studybot/internal/review"
	"github.com/example/studybot/pkg/models"
)

const testUserID = int64(1)

type harness struct {
	db       *sqlx.DB
	cards    *database.CardRepository
	items    *database.ItemRepository
	manager  *Manager
	registry *Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cards := database.NewCardRepository(db)
	items := database.NewItemRepository(db)
	history := database.NewReviewHistoryRepository(db)
	sessions := database.NewSessionRepository(db)
	engine, err := fsrs.NewEngine(models.DefaultParameters())
	require.NoError(t, err)

	reviews := review.NewService(db, cards, history, engine, nil)
	registry := NewRegistry()
	return &harness{
		db:       db,
		cards:    cards,
		items:    items,
		manager:  NewManager(cards, items, sessions, reviews, registry),
		registry: registry,
	}
}

// seedItems creates n items with matching new cards and returns the items.
func (h *harness) seedItems(t *testing.T, n int) []models.Item {
	t.Helper()
	ctx := context.Background()
	out := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		item := &models.Item{
			Prompt:   fmt.Sprintf("prompt %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
			Category: "test",
		}
		require.NoError(t, h.items.Create(ctx, item))
		_, err := h.cards.Create(ctx, models.NewCard(item.ID, testUserID, time.Now().UTC()))
		require.NoError(t, err)
		out = append(out, *item)
	}
	return out
}

func TestFastCorrectAnswersGradeEasy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 5)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)

	for range items {
		next, err := h.manager.NextItem(ctx, sessionID)
		require.NoError(t, err)
		require.NotNil(t, next)

		answer := next.Item.Answer
		res, err := h.manager.SubmitAnswer(ctx, SubmitRequest{
			SessionID:      sessionID,
			ItemID:         next.Item.ID,
			Answer:         &answer,
			ResponseTimeMs: 1500,
		})
		require.NoError(t, err)
		assert.Equal(t, models.Easy, res.Rating)
	}

	next, err := h.manager.NextItem(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, next, "queue exhausted")

	progress, err := h.manager.Progress(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 5, progress.QuestionsCompleted)
	assert.Equal(t, 5, progress.QuestionsCorrect)
	assert.Equal(t, 1.0, progress.CurrentRetentionRate)
	assert.Equal(t, 1500, progress.AverageResponseTimeMs)

	summary, err := h.manager.End(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.AccuracyPercentage)
	assert.Equal(t, 100.0, summary.CompletionRate)
	assert.Equal(t, 0, h.registry.Len(), "ending frees the registry slot")
}

func TestRatingInference(t *testing.T) {
	tests := []struct {
		name      string
		correct   bool
		skipped   bool
		latencyMs int
		want      models.Rating
	}{
		{"skipped", false, true, 0, models.Again},
		{"wrong", false, false, 1000, models.Again},
		{"fast correct", true, false, 2999, models.Easy},
		{"medium correct", true, false, 3000, models.Good},
		{"slow correct", true, false, 8000, models.Hard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferRating(tt.correct, tt.skipped, tt.latencyMs))
		})
	}
}

func TestSkippedAnswerExcludedFromRetention(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 3)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)

	// Correct, then skip, then wrong.
	answer := items[0].Answer
	res, err := h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: items[0].ID, Answer: &answer, ResponseTimeMs: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Easy, res.Rating)

	res, err = h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: items[1].ID, Answer: nil, ResponseTimeMs: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Again, res.Rating, "skip grades as a lapse")

	wrong := "not it"
	res, err = h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: items[2].ID, Answer: &wrong, ResponseTimeMs: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Again, res.Rating)

	progress, err := h.manager.Progress(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.QuestionsCompleted)
	assert.Equal(t, 1, progress.QuestionsCorrect)
	assert.Equal(t, 1, progress.QuestionsSkipped)
	assert.Equal(t, 1, progress.QuestionsIncorrect)
	// 1 correct out of 2 answered; the skip is excluded.
	assert.InDelta(t, 0.5, progress.CurrentRetentionRate, 1e-9)
}

func TestExplicitRatingOverridesInference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 1)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)

	answer := items[0].Answer
	hard := models.Hard
	res, err := h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID:      sessionID,
		ItemID:         items[0].ID,
		Answer:         &answer,
		ResponseTimeMs: 1000, // would infer Easy
		Rating:         &hard,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Hard, res.Rating)
}

func TestSubmitUnknownItemLeavesProgressUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedItems(t, 2)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)

	answer := "anything"
	_, err = h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: 9999, Answer: &answer, ResponseTimeMs: 100,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)

	progress, err := h.manager.Progress(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.QuestionsCompleted)
}

func TestSubmitToUnknownSession(t *testing.T) {
	h := newHarness(t)
	answer := "x"
	_, err := h.manager.SubmitAnswer(context.Background(), SubmitRequest{
		SessionID: 555, ItemID: 1, Answer: &answer, ResponseTimeMs: 100,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmitToEndedSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 1)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)
	_, err = h.manager.End(ctx, sessionID)
	require.NoError(t, err)

	answer := items[0].Answer
	_, err = h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: items[0].ID, Answer: &answer, ResponseTimeMs: 100,
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStartRejectsUnknownType(t *testing.T) {
	h := newHarness(t)
	config := models.DefaultSessionConfig(models.SessionType("cram"))
	_, err := h.manager.Start(context.Background(), config, testUserID)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEmptyPoolSessionIsCompletable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionReview), testUserID)
	require.NoError(t, err)

	next, err := h.manager.NextItem(ctx, sessionID)
	require.NoError(t, err)
	assert.Nil(t, next)

	summary, err := h.manager.End(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.QuestionsCompleted)
	assert.Equal(t, 0.0, summary.CompletionRate)
}

func TestWeakFocusSelectsLapsedCards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 3)

	// Only the second item crosses the lapse threshold.
	card, err := h.cards.GetByItem(ctx, items[1].ID, testUserID)
	require.NoError(t, err)
	_, err = h.db.Exec("UPDATE cards SET lapse_count = 5 WHERE id = $1", card.ID)
	require.NoError(t, err)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionWeakFocus), testUserID)
	require.NoError(t, err)

	next, err := h.manager.NextItem(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, items[1].ID, next.Item.ID)
	assert.Equal(t, 1, next.QuestionNumber)
	assert.Equal(t, 1, next.TotalQuestions)
}

func TestCancelPersistsPartialStatistics(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.seedItems(t, 4)

	sessionID, err := h.manager.Start(ctx, models.DefaultSessionConfig(models.SessionLearn), testUserID)
	require.NoError(t, err)

	answer := items[0].Answer
	_, err = h.manager.SubmitAnswer(ctx, SubmitRequest{
		SessionID: sessionID, ItemID: items[0].ID, Answer: &answer, ResponseTimeMs: 2000,
	})
	require.NoError(t, err)

	summary, err := h.manager.Cancel(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.QuestionsCompleted)
	assert.InDelta(t, 25.0, summary.CompletionRate, 1e-9)

	persisted, err := database.NewSessionRepository(h.db).GetByID(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, string(models.SessionCancelled), persisted.Status)
	assert.Equal(t, 1, persisted.QuestionsReviewed)
	assert.Equal(t, 1, persisted.QuestionsCorrect)
}

func TestEstimateMinutes(t *testing.T) {
	assert.Equal(t, 1, estimateMinutes(0))
	assert.Equal(t, 1, estimateMinutes(1))
	assert.Equal(t, 5, estimateMinutes(10))
}

func TestStartDefaultsZeroLimits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedItems(t, 3)

	sessionID, err := h.manager.Start(ctx, models.SessionConfig{Type: models.SessionLearn}, testUserID)
	require.NoError(t, err)

	progress, err := h.manager.Progress(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.QuestionsTotal, "zero limits fall back to the defaults")
}
