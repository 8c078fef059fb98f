package observers

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
	"github.com/harunnryd/orb/pkg/turn"
)

type step struct {
	from, to turn.State
	action   turn.Action
	afterMS  int
}

func feed(rec *SessionRecorder, id string, steps ...step) {
	at := time.Now()
	for _, st := range steps {
		at = at.Add(time.Duration(st.afterMS) * time.Millisecond)
		rec.OnEvent(stateEvent(id, at, st.from, st.to, st.action))
	}
}

func TestTurnObserverCompletedTurn(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	mem := metrics.NewMemoryObserver()
	rec := NewSessionRecorder(NewTurnObserver(log, mem))

	feed(rec, "s1",
		step{turn.StateIdle, turn.StateListening, turn.ActionToggleMic, 0},
		step{turn.StateListening, turn.StateThinking, turn.ActionStartThinking, 2000},
		step{turn.StateThinking, turn.StateSpeaking, turn.ActionStartSpeaking, 600},
		step{turn.StateSpeaking, turn.StateIdle, turn.ActionStopSpeaking, 2500},
	)

	summaries := mem.Named(metrics.NameTurnSummary)
	if len(summaries) != 1 {
		t.Fatalf("expected one turn summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.Tags["outcome"] != "completed" || s.Value != 5100 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Fields["thinking_ms"] != int64(600) {
		t.Fatalf("expected thinking 600ms, got %v", s.Fields["thinking_ms"])
	}
	if !strings.Contains(buf.String(), "outcome=completed") {
		t.Fatalf("expected turn log line, got %s", buf.String())
	}
}

func TestTurnObserverInterruptedTurn(t *testing.T) {
	mem := metrics.NewMemoryObserver()
	rec := NewSessionRecorder(NewTurnObserver(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), mem))

	feed(rec, "s1",
		step{turn.StateIdle, turn.StateListening, turn.ActionToggleMic, 0},
		step{turn.StateListening, turn.StateThinking, turn.ActionStartThinking, 2000},
		step{turn.StateThinking, turn.StateSpeaking, turn.ActionStartSpeaking, 600},
		step{turn.StateSpeaking, turn.StateListening, turn.ActionInterrupt, 300},
		step{turn.StateListening, turn.StateIdle, turn.ActionToggleMic, 100},
	)

	summaries := mem.Named(metrics.NameTurnSummary)
	if len(summaries) != 2 {
		t.Fatalf("expected two summaries, got %d", len(summaries))
	}
	if summaries[0].Tags["outcome"] != "interrupted" || summaries[0].Fields["speaking_ms"] != int64(300) {
		t.Fatalf("unexpected interrupted summary %+v", summaries[0])
	}
	if summaries[1].Tags["outcome"] != "cancelled" || summaries[1].Fields["thinking_ms"] != int64(-1) {
		t.Fatalf("unexpected cancelled summary %+v", summaries[1])
	}
}
