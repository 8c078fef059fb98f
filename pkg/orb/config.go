package orb

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/harunnryd/orb/pkg/configutil"
	"github.com/harunnryd/orb/pkg/errorsx"
	"github.com/harunnryd/orb/pkg/session"
)

type Config struct {
	Session       SessionConfig       `mapstructure:"session"`
	Audio         ProviderConfig      `mapstructure:"audio"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Runner        RunnerConfig        `mapstructure:"runner"`
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	LogFormat     string              `mapstructure:"log_format"`
}

type SessionConfig struct {
	ListeningTimeoutMS   int `mapstructure:"listening_timeout_ms"`
	ThinkingDurationMS   int `mapstructure:"thinking_duration_ms"`
	SpeakingDurationMS   int `mapstructure:"speaking_duration_ms"`
	AudioLevelIntervalMS int `mapstructure:"audio_level_interval_ms"`
}

// Timings converts the millisecond settings into session timings.
func (c SessionConfig) Timings() session.Timings {
	def := session.DefaultTimings()
	return session.Timings{
		ListeningTimeout:   configutil.Millis(c.ListeningTimeoutMS, def.ListeningTimeout),
		ThinkingDuration:   configutil.Millis(c.ThinkingDurationMS, def.ThinkingDuration),
		SpeakingDuration:   configutil.Millis(c.SpeakingDurationMS, def.SpeakingDuration),
		AudioLevelInterval: configutil.Millis(c.AudioLevelIntervalMS, def.AudioLevelInterval),
	}
}

type ProviderConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type ObservabilityConfig struct {
	ArtifactsDir    string  `mapstructure:"artifacts_dir"`
	RetentionDays   int     `mapstructure:"retention_days"`
	AudioSampleRate float64 `mapstructure:"audio_sample_rate"`
	LogMetrics      bool    `mapstructure:"log_metrics"`
}

type RunnerConfig struct {
	DrainTimeoutMS int  `mapstructure:"drain_timeout_ms"`
	Banner         bool `mapstructure:"banner"`
}

func (c RunnerConfig) DrainTimeout() time.Duration {
	return configutil.Millis(c.DrainTimeoutMS, 2*time.Second)
}

// NewViper returns a viper instance with every default registered, so flag
// bindings and config files layer on top of the same keys.
func NewViper() *viper.Viper {
	v := viper.New()
	def := session.DefaultTimings()
	v.SetDefault("session.listening_timeout_ms", def.ListeningTimeout.Milliseconds())
	v.SetDefault("session.thinking_duration_ms", def.ThinkingDuration.Milliseconds())
	v.SetDefault("session.speaking_duration_ms", def.SpeakingDuration.Milliseconds())
	v.SetDefault("session.audio_level_interval_ms", def.AudioLevelInterval.Milliseconds())
	v.SetDefault("audio.provider", "random")
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("observability.retention_days", 0)
	v.SetDefault("observability.audio_sample_rate", 0.2)
	v.SetDefault("observability.log_metrics", false)
	v.SetDefault("runner.drain_timeout_ms", 2000)
	v.SetDefault("runner.banner", true)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetEnvPrefix("ORB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads path (any viper-supported format) on top of the defaults.
// An empty path loads defaults and environment only.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errorsx.Errorf(errorsx.ReasonConfigRead, "read config: %w", err)
		}
	}
	return ConfigFromViper(v)
}

// ConfigFromViper unmarshals and validates an already-populated viper.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errorsx.Errorf(errorsx.ReasonConfigInvalid, "unmarshal: %w", err)
	}
	expandEnvStrings(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, errorsx.Errorf(errorsx.ReasonConfigInvalid, "validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	s := c.Session
	for _, f := range []struct {
		name string
		ms   int
	}{
		{"session.listening_timeout_ms", s.ListeningTimeoutMS},
		{"session.thinking_duration_ms", s.ThinkingDurationMS},
		{"session.speaking_duration_ms", s.SpeakingDurationMS},
		{"session.audio_level_interval_ms", s.AudioLevelIntervalMS},
	} {
		if f.ms <= 0 {
			return errorsx.Errorf(errorsx.ReasonConfigInvalid, "%s must be positive, got %d", f.name, f.ms)
		}
	}
	if err := configutil.RequireString(c.Audio.Provider, "audio.provider"); err != nil {
		return err
	}
	if err := configutil.RequireRange(c.Observability.AudioSampleRate, 0, 1, "observability.audio_sample_rate"); err != nil {
		return err
	}
	if c.Observability.RetentionDays < 0 {
		return errorsx.Errorf(errorsx.ReasonConfigInvalid, "observability.retention_days must not be negative, got %d", c.Observability.RetentionDays)
	}
	return nil
}

func expandEnvStrings(cfg *Config) {
	cfg.Environment = os.ExpandEnv(cfg.Environment)
	cfg.LogLevel = os.ExpandEnv(cfg.LogLevel)
	cfg.LogFormat = os.ExpandEnv(cfg.LogFormat)
	cfg.Audio.Provider = os.ExpandEnv(cfg.Audio.Provider)
	cfg.Observability.ArtifactsDir = os.ExpandEnv(cfg.Observability.ArtifactsDir)
	cfg.Audio.Settings = expandSettings(cfg.Audio.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}
