// Package session drives a mock voice session: it owns the current turn
// state, applies turn.Transition for user and timer actions, and runs the
// automatic listening -> thinking -> speaking -> idle sequence.
package session

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/orb/pkg/providers/mock"
	"github.com/harunnryd/orb/pkg/turn"
)

// LevelSource produces a mock audio level on every tick while speaking.
type LevelSource func() float64

type Options struct {
	ID        string
	Timings   Timings
	Level     LevelSource
	Scheduler Scheduler
	Logger    *slog.Logger
	Listeners []Listener
}

// Session is the orchestrator for a single voice session.
type Session struct {
	id      string
	timings Timings
	level   LevelSource
	sched   Scheduler
	log     *slog.Logger

	mu         sync.Mutex
	state      turn.State
	audioLevel float64
	videoOn    bool
	closed     bool
	// generation is bumped by every cancellation; callbacks scheduled under
	// an older generation never apply.
	generation uint64
	pending    [slotCount]Timer
	listeners  []Listener
	queue      []Event
	delivering bool
}

func New(opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	level := opts.Level
	if level == nil {
		level = LevelSource(mock.NewRandomLevel(mock.LevelConfig{}))
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = RealScheduler{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		id:      id,
		timings: opts.Timings.withDefaults(),
		level:   level,
		sched:   sched,
		log:     log.With(slog.String("session_id", id)),
		state:   turn.StateIdle,
	}
	s.listeners = append(s.listeners, opts.Listeners...)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Timings() Timings { return s.timings }

// State returns the current state.
func (s *Session) State() turn.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AudioLevel returns the current mock audio level.
func (s *Session) AudioLevel() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioLevel
}

func (s *Session) VideoOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoOn
}

// Pending returns the number of outstanding timers.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if t != nil {
			n++
		}
	}
	return n
}

// AddListener registers a listener for session events.
func (s *Session) AddListener(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// MicPress handles the microphone button. Pending timers are always
// cancelled first. While speaking it barges in (INTERRUPT) and does not
// restart the automatic sequence; otherwise it toggles the mic and starts the
// sequence when the session enters listening.
func (s *Session) MicPress() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	evs := s.cancelLocked("mic_press")

	if s.state == turn.StateSpeaking {
		evs = append(evs, s.applyLocked(turn.ActionInterrupt, "barge-in")...)
		evs = append(evs, s.setLevelLocked(0)...)
		s.emitLocked(evs)
		return
	}

	evs = append(evs, s.applyLocked(turn.ActionToggleMic, "mic press")...)
	if s.state == turn.StateListening {
		s.scheduleLocked(slotListening, s.timings.ListeningTimeout, s.onListeningTimeout)
	}
	s.emitLocked(evs)
}

// Reset ends the session turn: cancels all timers, returns to idle and
// zeroes the audio level.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	evs := s.cancelLocked("reset")
	evs = append(evs, s.applyLocked(turn.ActionReset, "reset")...)
	evs = append(evs, s.setLevelLocked(0)...)
	s.emitLocked(evs)
}

// ToggleVideo flips the video flag. It has no effect on the turn state.
func (s *Session) ToggleVideo() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.videoOn = !s.videoOn
	s.log.Debug("video_toggled", slog.Bool("video_on", s.videoOn))
	s.emitLocked([]Event{s.eventLocked(EventVideoToggled)})
}

// CancelPending stops every outstanding timer. Safe to call with nothing
// pending.
func (s *Session) CancelPending() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.emitLocked(s.cancelLocked("cancel"))
}

// Close tears the session down. Outstanding timers are cancelled and every
// later call becomes a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	evs := s.cancelLocked("close")
	s.closed = true
	s.log.Debug("session_closed", slog.String("state", s.state.String()))
	s.emitLocked(evs)
	return nil
}

func (s *Session) onListeningTimeout() []Event {
	// The timer may have raced a cancellation that already moved us on.
	if s.state != turn.StateListening {
		return nil
	}
	evs := s.applyLocked(turn.ActionStartThinking, "listening timeout")
	s.scheduleLocked(slotThinking, s.timings.ThinkingDuration, s.onThinkingDone)
	return evs
}

func (s *Session) onThinkingDone() []Event {
	evs := s.applyLocked(turn.ActionStartSpeaking, "thinking done")
	if s.state != turn.StateSpeaking {
		return evs
	}
	s.scheduleLocked(slotAudioTick, s.timings.AudioLevelInterval, s.onAudioTick)
	s.scheduleLocked(slotSpeaking, s.timings.SpeakingDuration, s.onSpeakingDone)
	return evs
}

func (s *Session) onAudioTick() []Event {
	if s.state != turn.StateSpeaking {
		return nil
	}
	evs := s.setLevelLocked(clampLevel(s.level()))
	s.scheduleLocked(slotAudioTick, s.timings.AudioLevelInterval, s.onAudioTick)
	return evs
}

func (s *Session) onSpeakingDone() []Event {
	s.stopLocked()
	evs := s.applyLocked(turn.ActionStopSpeaking, "speaking done")
	return append(evs, s.setLevelLocked(0)...)
}

// scheduleLocked arms slot under the current generation.
func (s *Session) scheduleLocked(slot timerSlot, d time.Duration, step func() []Event) {
	gen := s.generation
	if prev := s.pending[slot]; prev != nil {
		prev.Stop()
	}
	s.pending[slot] = s.sched.AfterFunc(d, func() {
		s.fire(gen, slot, step)
	})
}

func (s *Session) fire(gen uint64, slot timerSlot, step func() []Event) {
	s.mu.Lock()
	if s.closed || gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("stale_timer_ignored", slog.String("timer", slot.String()))
		return
	}
	s.pending[slot] = nil
	s.emitLocked(step())
}

// cancelLocked invalidates every scheduled callback and stops the timers.
func (s *Session) cancelLocked(reason string) []Event {
	n := s.stopLocked()
	if n == 0 {
		return nil
	}
	s.log.Debug("timers_cancelled", slog.Int("count", n), slog.String("reason", reason))
	ev := s.eventLocked(EventTimersCancelled)
	ev.Cancelled = n
	return []Event{ev}
}

func (s *Session) stopLocked() int {
	s.generation++
	n := 0
	for i, t := range s.pending {
		if t == nil {
			continue
		}
		t.Stop()
		s.pending[i] = nil
		n++
	}
	return n
}

func (s *Session) applyLocked(action turn.Action, reason string) []Event {
	from := s.state
	to := turn.Transition(from, action)
	if from == to {
		return nil
	}
	s.state = to
	s.log.Debug("state_changed",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("action", string(action)),
	)
	ev := s.eventLocked(EventStateChanged)
	ev.Change = turn.StateChange{
		From:      from,
		To:        to,
		Action:    action,
		Reason:    reason,
		Timestamp: ev.Time,
	}
	return []Event{ev}
}

func (s *Session) setLevelLocked(level float64) []Event {
	if s.audioLevel == level {
		return nil
	}
	s.audioLevel = level
	return []Event{s.eventLocked(EventAudioLevel)}
}

func (s *Session) eventLocked(t EventType) Event {
	return Event{
		Type:       t,
		SessionID:  s.id,
		Time:       time.Now(),
		AudioLevel: s.audioLevel,
		VideoOn:    s.videoOn,
	}
}

// emitLocked queues evs and releases s.mu. The first caller to find the
// queue idle drains it, so listeners see events in mutation order even when
// timers and user calls interleave.
func (s *Session) emitLocked(evs []Event) {
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, evs...)
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.queue) > 0 {
		batch := s.queue
		s.queue = nil
		listeners := make([]Listener, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()
		for _, ev := range batch {
			for _, l := range listeners {
				l.OnEvent(ev)
			}
		}
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

func clampLevel(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
