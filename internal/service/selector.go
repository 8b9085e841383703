package service

import "math/rand/v2"

// RandomSource picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRandomSource returns a source backed by the runtime's global generator
func DefaultRandomSource() RandomSource {
	return globalRand{}
}

// SelectTeaMaker picks one candidate uniformly at random
func SelectTeaMaker(candidates []string, rng RandomSource) (string, error) {
	if len(candidates) == 0 {
		return "", ErrEmptyCandidateSet
	}
	return candidates[rng.IntN(len(candidates))], nil
}
