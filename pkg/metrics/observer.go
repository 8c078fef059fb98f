package metrics

import "time"

// Event names recorded for a voice session.
const (
	NameStateChange     = "state_change"
	NameAudioLevel      = "audio_level"
	NameVideoToggle     = "video_toggle"
	NameTimersCancelled = "timers_cancelled"
	NameTurnSummary     = "turn_summary"
)

// Tag keys shared by recorders and observers.
const (
	TagSessionID = "session_id"
	TagFrom      = "from"
	TagTo        = "to"
	TagAction    = "action"
	TagReason    = "reason"
)

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

// SessionID returns the session tag, if any.
func (ev MetricsEvent) SessionID() string {
	if ev.Tags == nil {
		return ""
	}
	return ev.Tags[TagSessionID]
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev MetricsEvent)

func (f ObserverFunc) RecordEvent(ev MetricsEvent) { f(ev) }

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}
