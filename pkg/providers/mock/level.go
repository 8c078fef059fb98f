package mock

import (
	"math/rand/v2"
	"sync"
	"time"
)

type LevelConfig struct {
	Min  float64
	Max  float64
	Seed uint64
}

// NewRandomLevel returns a source of uniformly distributed mock audio
// levels in [Min, Max). Zero bounds default to [0.3, 0.9); a zero Seed seeds
// from the clock.
func NewRandomLevel(cfg LevelConfig) func() float64 {
	if cfg.Min == 0 && cfg.Max == 0 {
		cfg.Min, cfg.Max = 0.3, 0.9
	}
	if cfg.Max < cfg.Min {
		cfg.Min, cfg.Max = cfg.Max, cfg.Min
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	span := cfg.Max - cfg.Min
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return cfg.Min + rng.Float64()*span
	}
}

// NewConstantLevel returns a source that always yields level.
func NewConstantLevel(level float64) func() float64 {
	return func() float64 { return level }
}

// SequenceLevel replays a fixed list of levels, repeating the last one.
type SequenceLevel struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewSequenceLevel(values ...float64) *SequenceLevel {
	return &SequenceLevel{values: values}
}

func (s *SequenceLevel) Next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	if s.next >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.next]
	s.next++
	return v
}

// Calls returns how many values have been consumed.
func (s *SequenceLevel) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
