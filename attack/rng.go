package attack

import "math/rand"

// NewRand returns a seeded source. Seed 0 maps to 1 so a zero-valued
// config still replays the same match.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
