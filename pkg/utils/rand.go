package utils

import (
	"math"
	"math/rand"
	"time"
)

// RandSource is a seedable random number generator owned by a single run.
// A seed of 0 selects a time-based seed; any other seed gives a
// reproducible sequence.
type RandSource struct {
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// NormFloat64 returns a normally distributed random number with mean and stddev
func (r *RandSource) NormFloat64(mean, stddev float64) float64 {
	return r.rng.NormFloat64()*stddev + mean
}

// UniformFloat64 returns a uniformly distributed random number in [min, max)
func (r *RandSource) UniformFloat64(min, max float64) float64 {
	return min + r.rng.Float64()*(max-min)
}

// LogUniformFloat64 returns a log-uniformly distributed random number in
// [min, max), i.e. uniform over log(min)..log(max) then exponentiated.
// Both bounds must be positive.
func (r *RandSource) LogUniformFloat64(min, max float64) float64 {
	lo := math.Log(min)
	hi := math.Log(max)
	return math.Exp(lo + r.rng.Float64()*(hi-lo))
}
