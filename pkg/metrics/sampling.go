package metrics

import (
	"math"
	"sync"
)

// SamplingObserver forwards one in every N events for the listed names,
// counted separately per session so each session's stream is thinned
// evenly. Events with other names always pass.
type SamplingObserver struct {
	inner Observer
	names map[string]bool
	every uint64 // 0 drops every sampled event

	mu      sync.Mutex
	counts  map[string]uint64
	skipped uint64
}

func NewSamplingObserver(inner Observer, rate float64, names ...string) *SamplingObserver {
	rate = math.Max(0, math.Min(1, rate))
	var every uint64
	if rate > 0 {
		every = max(uint64(math.Round(1/rate)), 1)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return &SamplingObserver{inner: inner, names: set, every: every, counts: make(map[string]uint64)}
}

func (s *SamplingObserver) RecordEvent(ev MetricsEvent) {
	if !s.names[ev.Name] || s.every == 1 {
		s.inner.RecordEvent(ev)
		return
	}
	if !s.keep(ev.Name + "/" + ev.SessionID()) {
		return
	}
	s.inner.RecordEvent(ev)
}

// Skipped reports how many sampled events were not forwarded.
func (s *SamplingObserver) Skipped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

func (s *SamplingObserver) keep(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.every == 0 {
		s.skipped++
		return false
	}
	s.counts[key]++
	if s.counts[key]%s.every == 0 {
		return true
	}
	s.skipped++
	return false
}

// Flush passes through to the wrapped observer.
func (s *SamplingObserver) Flush() error {
	if f, ok := s.inner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}
