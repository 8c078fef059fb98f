package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
)

// TurnObserver follows each session through one listening -> thinking ->
// speaking -> idle turn and logs how long each phase took. A turn that is
// interrupted, toggled off or reset is logged with its outcome.
type TurnObserver struct {
	mu    sync.Mutex
	turns map[string]*turnTrace
	log   *slog.Logger
	next  metrics.Observer
}

type turnTrace struct {
	listening time.Time
	thinking  time.Time
	speaking  time.Time
}

// NewTurnObserver logs turn summaries to log and forwards a turn_summary
// event to next when it is non-nil.
func NewTurnObserver(log *slog.Logger, next metrics.Observer) *TurnObserver {
	if log == nil {
		log = slog.Default()
	}
	return &TurnObserver{
		turns: make(map[string]*turnTrace),
		log:   log,
		next:  next,
	}
}

func (o *TurnObserver) RecordEvent(ev metrics.MetricsEvent) {
	if ev.Name != metrics.NameStateChange {
		return
	}
	id := ev.SessionID()
	if id == "" {
		return
	}
	from, to := ev.Tags[metrics.TagFrom], ev.Tags[metrics.TagTo]

	o.mu.Lock()
	t := o.turns[id]
	switch to {
	case "listening":
		if from == "speaking" {
			o.finishLocked(id, t, ev.Time, "interrupted")
		}
		o.turns[id] = &turnTrace{listening: ev.Time}
	case "thinking":
		if t != nil {
			t.thinking = ev.Time
		}
	case "speaking":
		if t != nil {
			t.speaking = ev.Time
		}
	case "idle":
		outcome := "completed"
		switch from {
		case "listening":
			outcome = "cancelled"
		case "thinking":
			outcome = "reset"
		case "speaking":
			if ev.Tags[metrics.TagAction] == "RESET" {
				outcome = "reset"
			}
		}
		o.finishLocked(id, t, ev.Time, outcome)
		delete(o.turns, id)
	}
	o.mu.Unlock()
}

func (o *TurnObserver) finishLocked(id string, t *turnTrace, end time.Time, outcome string) {
	if t == nil {
		return
	}
	listen := durationMs(t.listening, firstSet(t.thinking, end))
	think := durationMs(t.thinking, firstSet(t.speaking, end))
	speak := durationMs(t.speaking, end)
	total := durationMs(t.listening, end)
	o.log.Info("turn",
		"session_id", id,
		"outcome", outcome,
		"listening_ms", listen,
		"thinking_ms", think,
		"speaking_ms", speak,
		"total_ms", total,
	)
	if o.next != nil {
		o.next.RecordEvent(metrics.MetricsEvent{
			Name:  metrics.NameTurnSummary,
			Time:  end,
			Value: float64(total),
			Tags: map[string]string{
				metrics.TagSessionID: id,
				"outcome":            outcome,
			},
			Fields: map[string]any{
				"listening_ms": listen,
				"thinking_ms":  think,
				"speaking_ms":  speak,
			},
		})
	}
}

func firstSet(a, b time.Time) time.Time {
	if !a.IsZero() {
		return a
	}
	return b
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}
