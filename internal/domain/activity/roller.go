package activity

import (
	"math/rand/v2"
	"sync"
)

// Roller yields uniform draws in [0, 1).
type Roller interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRoller returns a goroutine-safe PCG roller.
func NewRoller(seed uint64) Roller {
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// SequenceRoller replays fixed draws in order and cycles when exhausted.
type SequenceRoller struct {
	mu     sync.Mutex
	values []float64
	next   int
	Drawn  int
}

func NewSequenceRoller(values ...float64) *SequenceRoller {
	return &SequenceRoller{values: values}
}

func (s *SequenceRoller) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Drawn++
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}
