package observers

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
)

func TestTimelineObserverWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)

	obs.RecordEvent(metrics.MetricsEvent{
		Name: metrics.NameStateChange,
		Time: time.Now(),
		Tags: map[string]string{
			metrics.TagSessionID: "session/1",
			metrics.TagTo:        "listening",
		},
	})
	obs.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.NameAudioLevel,
		Time:  time.Now(),
		Value: 0.5,
		Tags:  map[string]string{metrics.TagSessionID: "session/1"},
	})
	if err := obs.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	_ = obs.Close()

	b, err := os.ReadFile(obs.Path("session/1"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first timelineEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Event != metrics.NameStateChange || first.Tags[metrics.TagTo] != "listening" {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if _, ok := first.Tags[metrics.TagSessionID]; ok {
		t.Fatalf("expected session id only at top level")
	}
	if first.Seq != 1 || first.SessionID != "session/1" {
		t.Fatalf("unexpected seq or session id %+v", first)
	}
	if !strings.HasSuffix(obs.Path("session/1"), "session_1.jsonl") {
		t.Fatalf("expected sanitized file name, got %s", obs.Path("session/1"))
	}
	if obs.Failures() != 0 {
		t.Fatalf("expected no write failures")
	}
}

func TestTimelineObserverReopensAfterClose(t *testing.T) {
	obs := NewTimelineObserver(t.TempDir())
	ev := metrics.MetricsEvent{Name: metrics.NameVideoToggle, Tags: map[string]string{metrics.TagSessionID: "s"}}
	obs.RecordEvent(ev)
	_ = obs.Close()
	obs.RecordEvent(ev)
	_ = obs.Close()

	b, err := os.ReadFile(obs.Path("s"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(b), "\n"); n != 2 {
		t.Fatalf("expected both entries appended, got %d lines", n)
	}
}

func TestTimelineObserverSkipsUntaggedEvents(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)
	obs.RecordEvent(metrics.MetricsEvent{Name: metrics.NameAudioLevel, Time: time.Now()})
	_ = obs.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files, got %d", len(entries))
	}
}
