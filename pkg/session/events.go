package session

import (
	"time"

	"github.com/harunnryd/orb/pkg/turn"
)

// EventType identifies what changed on a session.
type EventType string

const (
	EventStateChanged    EventType = "state_changed"
	EventAudioLevel      EventType = "audio_level"
	EventVideoToggled    EventType = "video_toggled"
	EventTimersCancelled EventType = "timers_cancelled"
)

// Event is delivered to listeners after every observable change.
type Event struct {
	Type      EventType
	SessionID string
	Time      time.Time

	// Set for EventStateChanged.
	Change turn.StateChange
	// Current audio level; always populated.
	AudioLevel float64
	// Current video flag; always populated.
	VideoOn bool
	// Number of timers stopped, for EventTimersCancelled.
	Cancelled int
}

// Listener receives session events in order. Listeners run without the
// session lock held. Events raised from inside OnEvent are queued and
// delivered after the current one.
type Listener interface {
	OnEvent(ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// StateListenerAdapter forwards state changes to a turn.StateListener.
type StateListenerAdapter struct {
	Inner turn.StateListener
}

func (a StateListenerAdapter) OnEvent(ev Event) {
	if a.Inner == nil || ev.Type != EventStateChanged {
		return
	}
	a.Inner.OnStateChange(ev.Change)
}
