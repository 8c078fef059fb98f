package session

import "time"

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d elapses.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer heap.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Timings controls the automatic listening -> thinking -> speaking -> idle sequence.
type Timings struct {
	ListeningTimeout   time.Duration
	ThinkingDuration   time.Duration
	SpeakingDuration   time.Duration
	AudioLevelInterval time.Duration
}

// DefaultTimings returns the stock mock-session pacing.
func DefaultTimings() Timings {
	return Timings{
		ListeningTimeout:   2000 * time.Millisecond,
		ThinkingDuration:   600 * time.Millisecond,
		SpeakingDuration:   2500 * time.Millisecond,
		AudioLevelInterval: 100 * time.Millisecond,
	}
}

func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	if t.ListeningTimeout <= 0 {
		t.ListeningTimeout = def.ListeningTimeout
	}
	if t.ThinkingDuration <= 0 {
		t.ThinkingDuration = def.ThinkingDuration
	}
	if t.SpeakingDuration <= 0 {
		t.SpeakingDuration = def.SpeakingDuration
	}
	if t.AudioLevelInterval <= 0 {
		t.AudioLevelInterval = def.AudioLevelInterval
	}
	return t
}

// timerSlot identifies one entry of the pending-timer set.
type timerSlot int

const (
	slotListening timerSlot = iota
	slotThinking
	slotSpeaking
	slotAudioTick
	slotCount
)

func (s timerSlot) String() string {
	switch s {
	case slotListening:
		return "listening_timeout"
	case slotThinking:
		return "thinking_duration"
	case slotSpeaking:
		return "speaking_duration"
	case slotAudioTick:
		return "audio_level_tick"
	default:
		return "unknown"
	}
}
