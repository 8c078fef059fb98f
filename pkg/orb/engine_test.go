package orb

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
	"github.com/harunnryd/orb/pkg/runner"
	"github.com/harunnryd/orb/pkg/session"
	"github.com/harunnryd/orb/pkg/turn"
)

func fastConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := LoadConfig(writeConfig(t, `
session:
  listening_timeout_ms: 10
  thinking_duration_ms: 10
  speaking_duration_ms: 40
  audio_level_interval_ms: 5
audio:
  provider: constant
  settings:
    level: 0.5
observability:
  audio_sample_rate: 1
runner:
  banner: false
  drain_timeout_ms: 1000
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Observability.ArtifactsDir = t.TempDir()
	return cfg
}

func TestEngineRunsSessionAndRecordsTimeline(t *testing.T) {
	cfg := fastConfig(t)
	mem := metrics.NewMemoryObserver()

	done := make(chan struct{})
	var once sync.Once
	finished := session.ListenerFunc(func(ev session.Event) {
		if ev.Type == session.EventStateChanged && ev.Change.From == turn.StateSpeaking && ev.Change.To == turn.StateIdle {
			once.Do(func() { close(done) })
		}
	})

	var logs bytes.Buffer
	eng, err := NewEngine(EngineOptions{
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
		Observers: []metrics.Observer{mem},
		Listeners: []session.Listener{finished},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- eng.Run(ctx) }()

	eng.Session().MicPress()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("sequence did not finish, state %s", eng.Session().State())
	}
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not stop")
	}

	if got := len(mem.Named(metrics.NameStateChange)); got != 4 {
		t.Fatalf("expected 4 state changes, got %d", got)
	}
	if got := mem.Named(metrics.NameTurnSummary); len(got) != 1 || got[0].Tags["outcome"] != "completed" {
		t.Fatalf("expected one completed turn summary, got %+v", got)
	}
	if len(mem.Named(metrics.NameAudioLevel)) == 0 {
		t.Fatalf("expected audio level events")
	}

	b, err := os.ReadFile(filepath.Join(cfg.Observability.ArtifactsDir, eng.Session().ID()+".jsonl"))
	if err != nil {
		t.Fatalf("read timeline: %v", err)
	}
	if strings.Count(string(b), `"event":"state_change"`) != 4 {
		t.Fatalf("expected 4 state changes in timeline, got %s", b)
	}
	if !strings.Contains(logs.String(), "orb_started") || !strings.Contains(logs.String(), "outcome=completed") {
		t.Fatalf("expected lifecycle and turn logs, got %s", logs.String())
	}
}

func TestEngineStopCancelsPendingTimers(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Session.ListeningTimeoutMS = 60_000
	eng, err := NewEngine(EngineOptions{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	eng.Session().MicPress()
	if eng.Session().Pending() != 1 {
		t.Fatalf("expected listening timer pending")
	}
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if eng.Session().Pending() != 0 {
		t.Fatalf("expected timers cancelled on stop")
	}
	eng.Session().MicPress()
	if eng.Session().State() != turn.StateListening {
		t.Fatalf("expected closed session to ignore input")
	}
}

func TestEngineRejectsUnknownProvider(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Audio = ProviderConfig{Provider: "microphone"}
	if _, err := NewEngine(EngineOptions{Config: cfg}); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestEngineBanner(t *testing.T) {
	cfg := fastConfig(t)
	cfg.Runner.Banner = true
	var banner bytes.Buffer
	eng, err := NewEngine(EngineOptions{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Banner: &banner,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := eng.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(banner.String(), "Version: "+runner.Version) {
		t.Fatalf("expected banner output, got %q", banner.String())
	}
}
