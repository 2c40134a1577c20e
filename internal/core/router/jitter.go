package router

import (
	"math/rand/v2"
	"sync"
)

// Jitter randomises returned durations so repeated presses do not look
// machine-timed.
type Jitter struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewJitter(seed1, seed2 uint64) *Jitter {
	return &Jitter{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// Apply scales d by a uniform factor in [1-amount, 1+amount) and truncates.
// A nil Jitter or a non-positive amount returns d unchanged.
func (j *Jitter) Apply(d int, amount float64) int {
	if j == nil || amount <= 0 || d <= 0 {
		return d
	}
	j.mu.Lock()
	f := 1 - amount + 2*amount*j.r.Float64()
	j.mu.Unlock()
	return max(0, int(float64(d)*f))
}
