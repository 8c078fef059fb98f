package orb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/orb/pkg/errorsx"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orb.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	tm := cfg.Session.Timings()
	if tm.ListeningTimeout != 2*time.Second || tm.ThinkingDuration != 600*time.Millisecond ||
		tm.SpeakingDuration != 2500*time.Millisecond || tm.AudioLevelInterval != 100*time.Millisecond {
		t.Fatalf("unexpected default timings %+v", tm)
	}
	if cfg.Audio.Provider != "random" || cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Runner.DrainTimeout() != 2*time.Second {
		t.Fatalf("unexpected drain timeout %s", cfg.Runner.DrainTimeout())
	}
}

func TestLoadConfigFileAndEnvExpansion(t *testing.T) {
	t.Setenv("ORB_TEST_LEVEL", "0.75")
	path := writeConfig(t, `
session:
  listening_timeout_ms: 500
  speaking_duration_ms: 900
audio:
  provider: constant
  settings:
    level: ${ORB_TEST_LEVEL}
log_level: debug
observability:
  audio_sample_rate: 1
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Timings().ListeningTimeout != 500*time.Millisecond {
		t.Fatalf("expected listening timeout override")
	}
	if cfg.Session.Timings().ThinkingDuration != 600*time.Millisecond {
		t.Fatalf("expected thinking default kept")
	}
	if cfg.Audio.Settings["level"] != "0.75" {
		t.Fatalf("expected expanded level setting, got %v", cfg.Audio.Settings["level"])
	}
	level, err := DefaultProviderRegistry().BuildLevel(cfg.Audio)
	if err != nil {
		t.Fatalf("build level: %v", err)
	}
	if level() != 0.75 {
		t.Fatalf("expected constant 0.75")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errorsx.HasReason(err, errorsx.ReasonConfigRead) {
		t.Fatalf("expected config_read error, got %v", err)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative timing": "session:\n  thinking_duration_ms: -1\n",
		"sample rate":     "observability:\n  audio_sample_rate: 3\n",
		"empty provider":  "audio:\n  provider: \"\"\n",
		"retention":       "observability:\n  retention_days: -2\n",
	}
	for name, body := range cases {
		_, err := LoadConfig(writeConfig(t, body))
		if !errorsx.HasReason(err, errorsx.ReasonConfigInvalid) {
			t.Fatalf("%s: expected config_invalid, got %v", name, err)
		}
	}
}

func TestProviderRegistry(t *testing.T) {
	reg := DefaultProviderRegistry()
	if names := reg.Names(); len(names) != 3 || names[0] != "constant" || names[1] != "random" || names[2] != "sequence" {
		t.Fatalf("unexpected providers %v", names)
	}

	if _, err := reg.BuildLevel(ProviderConfig{Provider: "microphone"}); !errorsx.HasReason(err, errorsx.ReasonProviderUnknown) {
		t.Fatalf("expected provider_unknown, got %v", err)
	}
	if _, err := reg.BuildLevel(ProviderConfig{Provider: "constant"}); !errorsx.HasReason(err, errorsx.ReasonProviderSettings) {
		t.Fatalf("expected missing level error, got %v", err)
	}
	if _, err := reg.BuildLevel(ProviderConfig{Provider: "Random", Settings: map[string]any{"min": 0.8, "max": 0.2}}); err == nil {
		t.Fatalf("expected inverted bounds error")
	}
	if _, err := reg.BuildLevel(ProviderConfig{Provider: "random", Settings: map[string]any{"volume": 1}}); err == nil {
		t.Fatalf("expected unknown setting error")
	}

	src, err := reg.BuildLevel(ProviderConfig{Provider: " RANDOM ", Settings: map[string]any{"min": 0.1, "max": 0.2, "seed": 3}})
	if err != nil {
		t.Fatalf("build random: %v", err)
	}
	for i := 0; i < 50; i++ {
		if v := src(); v < 0.1 || v >= 0.2 {
			t.Fatalf("level %f outside configured range", v)
		}
	}

	if _, err := reg.BuildLevel(ProviderConfig{Provider: "sequence", Settings: map[string]any{"values": []any{}}}); err == nil {
		t.Fatalf("expected empty sequence error")
	}
	seq, err := reg.BuildLevel(ProviderConfig{Provider: "sequence", Settings: map[string]any{"values": []any{0.2, 0.7}}})
	if err != nil {
		t.Fatalf("build sequence: %v", err)
	}
	if got := []float64{seq(), seq(), seq()}; got[0] != 0.2 || got[1] != 0.7 || got[2] != 0.7 {
		t.Fatalf("unexpected sequence %v", got)
	}
}
