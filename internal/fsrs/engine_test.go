package fsrs

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/pkg/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(models.DefaultParameters())
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsShortVector(t *testing.T) {
	_, err := NewEngine(models.MemoryParameters{
		W:               []float64{1, 2, 3},
		TargetRetention: 0.9,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNewEngineRejectsBadRetention(t *testing.T) {
	for _, retention := range []float64{0, 1, 1.5, -0.1} {
		p := models.DefaultParameters()
		p.TargetRetention = retention
		_, err := NewEngine(p)
		assert.ErrorIs(t, err, models.ErrConfiguration, "retention %v", retention)
	}
}

func TestScheduleRejectsInvalidRating(t *testing.T) {
	e := newTestEngine(t)
	for _, rating := range []models.Rating{0, 5, -1} {
		_, err := e.Schedule(State{Difficulty: 5, Stability: 1, Retrievability: 1}, rating, time.Now())
		assert.ErrorIs(t, err, models.ErrValidation, "rating %d", rating)
	}
}

func TestInitialStabilitySelectsWeightByRating(t *testing.T) {
	p := models.DefaultParameters()
	e, err := NewEngine(p)
	require.NoError(t, err)

	for _, rating := range []models.Rating{models.Again, models.Hard, models.Good, models.Easy} {
		want := math.Max(0.1, p.W[int(rating)-1])
		assert.Equal(t, want, e.InitialStability(rating), "rating %s", rating)
	}
}

func TestInitialStabilityFloor(t *testing.T) {
	p := models.DefaultParameters()
	p.W[0] = 0.01
	e, err := NewEngine(p)
	require.NoError(t, err)
	assert.Equal(t, 0.1, e.InitialStability(models.Again))
}

func TestNextDifficultyStaysInBounds(t *testing.T) {
	e := newTestEngine(t)
	ratings := []models.Rating{models.Again, models.Hard, models.Good, models.Easy}
	for d := 1.0; d <= 10.0; d += 0.5 {
		for _, rating := range ratings {
			next := e.NextDifficulty(d, rating)
			assert.GreaterOrEqual(t, next, 1.0, "d=%v rating=%s", d, rating)
			assert.LessOrEqual(t, next, 10.0, "d=%v rating=%s", d, rating)
		}
	}
}

func TestNextDifficultyDeltaSigns(t *testing.T) {
	e := newTestEngine(t)

	// Good is neutral: w6 * (3-3) = 0.
	assert.InDelta(t, 5.0, e.NextDifficulty(5.0, models.Good), 1e-12)
	// Again lowers via w6 * (1-3); Hard via w6 * (2-3).
	assert.Less(t, e.NextDifficulty(5.0, models.Again), 5.0)
	assert.Less(t, e.NextDifficulty(5.0, models.Hard), 5.0)
	// Easy carries the flipped sign: -w6 * (4-3).
	assert.Less(t, e.NextDifficulty(5.0, models.Easy), 5.0)
}

func TestNextStabilityFloor(t *testing.T) {
	e := newTestEngine(t)
	ratings := []models.Rating{models.Again, models.Hard, models.Good, models.Easy}
	for _, s := range []float64{0.1, 0.5, 1, 10, 100, 1000} {
		for _, rating := range ratings {
			next := e.NextStability(5.0, s, 0.9, rating)
			assert.GreaterOrEqual(t, next, 0.1, "s=%v rating=%s", s, rating)
		}
	}
}

func TestNextStabilityRecallGrows(t *testing.T) {
	e := newTestEngine(t)
	for _, rating := range []models.Rating{models.Hard, models.Good, models.Easy} {
		next := e.NextStability(5.0, 10.0, 0.9, rating)
		assert.Greater(t, next, 10.0, "rating %s", rating)
	}
}

func TestRetrievabilityProperties(t *testing.T) {
	e := newTestEngine(t)

	// Exactly 1 at zero elapsed time.
	assert.Equal(t, 1.0, e.Retrievability(0, 10))

	// Strictly decreasing in elapsed time for fixed stability, within (0,1].
	prev := 1.0
	for elapsed := 1.0; elapsed <= 100; elapsed += 1 {
		r := e.Retrievability(elapsed, 10)
		assert.Greater(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
		assert.Less(t, r, prev, "elapsed %v", elapsed)
		prev = r
	}
}

func TestIntervalClampDominates(t *testing.T) {
	e := newTestEngine(t)
	// ln(0.9) is negative, so the floor value never exceeds the one-day clamp.
	for _, s := range []float64{0.1, 1, 3, 10, 365} {
		assert.Equal(t, 1, e.Interval(s), "stability %v", s)
	}
}

func TestScheduleNewItemGood(t *testing.T) {
	// A new item rated Good takes its stability from the selected weight.
	p := models.DefaultParameters()
	p.W[2] = 3.0
	e, err := NewEngine(p)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res, err := e.Schedule(State{
		Difficulty:     5.0,
		Stability:      1.0,
		Retrievability: 1.0,
		Phase:          models.PhaseNew,
	}, models.Good, now)
	require.NoError(t, err)

	assert.Equal(t, 3.0, res.Stability)
	assert.Equal(t, 1, res.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 1), res.NextReviewDate)
	assert.InDelta(t, math.Exp(-1.0/3.0), res.Retrievability, 1e-12)
}

func TestScheduleReviewedItemAgain(t *testing.T) {
	e := newTestEngine(t)
	p := models.DefaultParameters()

	now := time.Now().UTC()
	res, err := e.Schedule(State{
		Difficulty:     5.0,
		Stability:      10.0,
		Retrievability: 0.9,
		Phase:          models.PhaseReview,
	}, models.Again, now)
	require.NoError(t, err)

	want := p.W[11] *
		math.Pow(5.0, -p.W[12]) *
		(math.Pow(11.0, p.W[13]) - 1) *
		math.Exp(p.W[14]*0.1)
	if want < 0.1 {
		want = 0.1
	}
	assert.InDelta(t, want, res.Stability, 1e-12)
	assert.GreaterOrEqual(t, res.Stability, 0.1)
	// A lapse shrinks stability.
	assert.Less(t, res.Stability, 10.0)
}

func TestScheduleReviewedItemRecallFormula(t *testing.T) {
	e := newTestEngine(t)
	p := models.DefaultParameters()

	d, s, r := 5.0, 10.0, 0.8
	res, err := e.Schedule(State{
		Difficulty:     d,
		Stability:      s,
		Retrievability: r,
		Phase:          models.PhaseReview,
	}, models.Good, time.Now().UTC())
	require.NoError(t, err)

	successFactor := (11 - d) / (11 - p.W[17]*(11-d))
	want := s * (math.Exp(p.W[8])*
		(11-d)*
		math.Pow(s, -p.W[9])*
		(math.Exp(p.W[10]*(1-r))-1)*
		successFactor + 1)
	assert.InDelta(t, want, res.Stability, 1e-9)
}

func TestEngineIsPure(t *testing.T) {
	e := newTestEngine(t)
	state := State{Difficulty: 6.2, Stability: 4.4, Retrievability: 0.7, Phase: models.PhaseReview}
	now := time.Now().UTC()

	first, err := e.Schedule(state, models.Hard, now)
	require.NoError(t, err)
	second, err := e.Schedule(state, models.Hard, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
