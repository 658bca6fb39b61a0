package models

import (
	"encoding"
	"fmt"
)

// Phase represents the lifecycle stage of a card.
//
// The phase is derived from the review count and persisted alongside the
// card: New before the first graded review, Learning for the first couple of
// reviews, Review once the card has entered the long-term cycle.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseLearning
	PhaseReview
)

// learningReviews is the number of graded reviews after which a card
// graduates from Learning to Review.
const learningReviews = 3

var (
	phaseNames  = [...]string{PhaseNew: "New", PhaseLearning: "Learning", PhaseReview: "Review"}
	phaseByName = map[string]Phase{
		"New":      PhaseNew,
		"Learning": PhaseLearning,
		"Review":   PhaseReview,
	}
)

var (
	_ fmt.Stringer             = Phase(0)
	_ encoding.TextMarshaler   = Phase(0)
	_ encoding.TextUnmarshaler = (*Phase)(nil)
)

// PhaseForReviewCount returns the phase a card with the given number of
// graded reviews belongs to.
func PhaseForReviewCount(reviewCount int) Phase {
	switch {
	case reviewCount <= 0:
		return PhaseNew
	case reviewCount < learningReviews:
		return PhaseLearning
	default:
		return PhaseReview
	}
}

// IsValid reports whether p is one of the three known phases.
func (p Phase) IsValid() bool {
	return p >= PhaseNew && p <= PhaseReview
}

// String returns "New", "Learning" or "Review".
func (p Phase) String() string {
	if p.IsValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: phase %d", ErrValidation, int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: phase %q", ErrValidation, text)
	}
	*p = v
	return nil
}
