package models

import "fmt"

// WeightCount is the number of weights in the memory-model parameter vector.
const WeightCount = 19

// DefaultTargetRetention is the retention probability the scheduler aims for
// when no configuration is stored.
const DefaultTargetRetention = 0.9

// DefaultWeights is the built-in memory-model weight vector, used whenever no
// per-learner configuration exists.
var DefaultWeights = [WeightCount]float64{
	0.5701, 1.4436, 4.1386, 10.9355, // w0..w3   initial stability by rating
	5.1443, 1.2006, 0.8627, 0.0362, // w4..w7   difficulty
	1.629, 0.1342, 1.0166, 2.1174, // w8..w11  recall / lapse stability
	0.0839, 0.3204, 1.4676, 0.219, // w12..w15 lapse stability
	2.8237, 0.2188, 0.9859, // w16..w18 success factor et al.
}

// MemoryParameters holds the weight vector and target-retention constant for
// one scheduling run. Treated as immutable once loaded.
type MemoryParameters struct {
	W               []float64 `json:"w"`
	TargetRetention float64   `json:"target_retention"`
}

// DefaultParameters returns the built-in parameter set.
func DefaultParameters() MemoryParameters {
	w := make([]float64, WeightCount)
	copy(w, DefaultWeights[:])
	return MemoryParameters{W: w, TargetRetention: DefaultTargetRetention}
}

// Validate checks the parameter vector length and the retention target range.
// A failure here is a configuration error and should abort startup.
func (p MemoryParameters) Validate() error {
	if len(p.W) < WeightCount {
		return fmt.Errorf("%w: want %d weights, got %d", ErrConfiguration, WeightCount, len(p.W))
	}
	if p.TargetRetention <= 0 || p.TargetRetention >= 1 {
		return fmt.Errorf("%w: target retention %v outside (0,1)", ErrConfiguration, p.TargetRetention)
	}
	return nil
}
