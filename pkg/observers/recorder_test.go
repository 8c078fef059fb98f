package observers

import (
	"testing"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
	"github.com/harunnryd/orb/pkg/session"
	"github.com/harunnryd/orb/pkg/turn"
)

func stateEvent(id string, at time.Time, from, to turn.State, action turn.Action) session.Event {
	return session.Event{
		Type:      session.EventStateChanged,
		SessionID: id,
		Time:      at,
		Change:    turn.StateChange{From: from, To: to, Action: action, Timestamp: at},
	}
}

func TestSessionRecorderMapsEvents(t *testing.T) {
	mem := metrics.NewMemoryObserver()
	rec := NewSessionRecorder(mem)
	start := time.Now()

	rec.OnEvent(stateEvent("s1", start, turn.StateIdle, turn.StateListening, turn.ActionToggleMic))
	rec.OnEvent(stateEvent("s1", start.Add(2*time.Second), turn.StateListening, turn.StateThinking, turn.ActionStartThinking))
	rec.OnEvent(session.Event{Type: session.EventAudioLevel, SessionID: "s1", AudioLevel: 0.42})
	rec.OnEvent(session.Event{Type: session.EventVideoToggled, SessionID: "s1", VideoOn: true})
	rec.OnEvent(session.Event{Type: session.EventTimersCancelled, SessionID: "s1", Cancelled: 2})
	rec.OnEvent(session.Event{Type: "something_else", SessionID: "s1"})

	changes := mem.Named(metrics.NameStateChange)
	if len(changes) != 2 {
		t.Fatalf("expected 2 state changes, got %d", len(changes))
	}
	if changes[1].Tags[metrics.TagFrom] != "listening" || changes[1].Tags[metrics.TagTo] != "thinking" {
		t.Fatalf("unexpected tags %v", changes[1].Tags)
	}
	if changes[1].Value != 2000 {
		t.Fatalf("expected 2000ms dwell, got %f", changes[1].Value)
	}
	if lvl := mem.Named(metrics.NameAudioLevel); len(lvl) != 1 || lvl[0].Value != 0.42 {
		t.Fatalf("unexpected audio events %+v", lvl)
	}
	if v := mem.Named(metrics.NameVideoToggle); len(v) != 1 || v[0].Tags["video_on"] != "true" {
		t.Fatalf("unexpected video events %+v", v)
	}
	if c := mem.Named(metrics.NameTimersCancelled); len(c) != 1 || c[0].Value != 2 {
		t.Fatalf("unexpected cancel events %+v", c)
	}
	if mem.Len() != 5 {
		t.Fatalf("expected unknown event types to be skipped, got %d events", mem.Len())
	}
}
