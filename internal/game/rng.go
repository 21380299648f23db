package game

import (
	"math/rand"
	"sync"
	"time"
)

// Roller is the source of critical-hit rolls. Injecting it keeps the engine
// deterministic under test.
type Roller interface {
	// Float64 returns a sample in [0, 1).
	Float64() float64
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller returns a Roller seeded with the given value. A zero seed uses
// the current time.
func NewRoller(seed int64) Roller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *randRoller) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// FixedRoller always returns Sample. Test helper.
type FixedRoller struct {
	Sample float64
}

func (f FixedRoller) Float64() float64 { return f.Sample }
