// Package fsrs implements the DSR (Difficulty/Stability/Retrievability)
// memory model used to schedule reviews.
//
// The engine is pure and stateless: given a card's current memory state, a
// rating and the parameter vector it returns the updated state and the next
// review date. It performs no I/O and is safe to call concurrently.
package fsrs

import (
	"fmt"
	"math"
	"time"

	"github.com/example/studybot/pkg/models"
)

const (
	minStability  = 0.1
	minDifficulty = 1.0
	maxDifficulty = 10.0
)

// State is the memory state the engine operates on.
type State struct {
	Difficulty     float64
	Stability      float64
	Retrievability float64
	Phase          models.Phase
}

// Result is the scheduling outcome of one graded review.
type Result struct {
	Difficulty     float64
	Stability      float64
	Retrievability float64 // At the scheduled interval, not at review time.
	IntervalDays   int
	NextReviewDate time.Time
}

// Engine evaluates the memory model for a fixed parameter set.
type Engine struct {
	w               []float64
	targetRetention float64
}

// NewEngine builds an engine from validated parameters.
func NewEngine(p models.MemoryParameters) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := make([]float64, len(p.W))
	copy(w, p.W)
	return &Engine{w: w, targetRetention: p.TargetRetention}, nil
}

// Schedule computes the full post-review state for one graded review.
func (e *Engine) Schedule(s State, rating models.Rating, now time.Time) (Result, error) {
	if !rating.IsValid() {
		return Result{}, fmt.Errorf("%w: rating %d", models.ErrValidation, int(rating))
	}

	difficulty := e.NextDifficulty(s.Difficulty, rating)

	var stability float64
	if s.Phase == models.PhaseNew {
		stability = e.InitialStability(rating)
	} else {
		stability = e.NextStability(s.Difficulty, s.Stability, s.Retrievability, rating)
	}

	interval := e.Interval(stability)
	return Result{
		Difficulty:     difficulty,
		Stability:      stability,
		Retrievability: math.Exp(-float64(interval) / stability),
		IntervalDays:   interval,
		NextReviewDate: now.AddDate(0, 0, interval),
	}, nil
}

// Retrievability computes R(t, S) = e^(-t/S) for t elapsed days.
func (e *Engine) Retrievability(elapsedDays, stability float64) float64 {
	if stability <= 0 {
		return 1.0
	}
	return math.Exp(-elapsedDays / stability)
}

// InitialStability returns the stability for a card's first graded review,
// selecting one of the first four weights by rating: max(0.1, w[g-1]).
func (e *Engine) InitialStability(rating models.Rating) float64 {
	return math.Max(minStability, e.w[int(rating)-1])
}

// NextDifficulty applies the rating's difficulty delta and clamps to [1,10].
// The delta is w6*(g-3), with the sign flipped for Easy.
func (e *Engine) NextDifficulty(difficulty float64, rating models.Rating) float64 {
	deltaD := e.w[6] * (float64(rating) - 3)
	if rating == models.Easy {
		deltaD = -deltaD
	}
	return clampDifficulty(difficulty + deltaD)
}

// NextStability computes post-review stability for a previously reviewed
// card, dispatching on whether the review was a lapse.
func (e *Engine) NextStability(difficulty, stability, retrievability float64, rating models.Rating) float64 {
	if rating == models.Again {
		return e.forgetStability(difficulty, stability, retrievability)
	}
	return e.recallStability(difficulty, stability, retrievability)
}

// recallStability grows stability after a successful recall:
// S' = S * (e^w8 * (11-D) * S^(-w9) * (e^(w10*(1-R)) - 1) * successFactor + 1)
func (e *Engine) recallStability(d, s, r float64) float64 {
	next := s * (math.Exp(e.w[8])*
		(11-d)*
		math.Pow(s, -e.w[9])*
		(math.Exp(e.w[10]*(1-r))-1)*
		e.successFactor(d) + 1)
	return math.Max(minStability, next)
}

// forgetStability shrinks stability after a lapse:
// S' = w11 * D^(-w12) * ((S+1)^w13 - 1) * e^(w14*(1-R))
func (e *Engine) forgetStability(d, s, r float64) float64 {
	next := e.w[11] *
		math.Pow(d, -e.w[12]) *
		(math.Pow(s+1, e.w[13]) - 1) *
		math.Exp(e.w[14]*(1-r))
	return math.Max(minStability, next)
}

// successFactor is (11-D) / (11 - w17*(11-D)).
func (e *Engine) successFactor(d float64) float64 {
	return (11 - d) / (11 - e.w[17]*(11-d))
}

// Interval is the scheduled interval in days for the given stability,
// max(1, floor(S * ln(targetRetention))). The retention target is below one,
// so the logarithm is negative and the one-day floor dominates.
func (e *Engine) Interval(stability float64) int {
	days := int(math.Floor(stability * math.Log(e.targetRetention)))
	if days < 1 {
		return 1
	}
	return days
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, minDifficulty), maxDifficulty)
}
