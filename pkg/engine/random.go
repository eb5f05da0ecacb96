package engine

import (
	"math/rand"
	"time"
)

// Rand is the source of every random draw the engine makes.
// *rand.Rand satisfies it.
type Rand interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n).
	Intn(n int) int
}

// NewRand returns a seeded source. A zero seed draws one from the wall clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
