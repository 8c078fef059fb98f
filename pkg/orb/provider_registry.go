package orb

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harunnryd/orb/pkg/configutil"
	"github.com/harunnryd/orb/pkg/errorsx"
	"github.com/harunnryd/orb/pkg/providers/mock"
	"github.com/harunnryd/orb/pkg/session"
)

// LevelFactory builds an audio-level source from provider settings.
type LevelFactory func(settings map[string]any) (session.LevelSource, error)

type ProviderRegistry struct {
	levels map[string]LevelFactory
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{levels: make(map[string]LevelFactory)}
}

// DefaultProviderRegistry has the built-in "random", "constant" and
// "sequence" mock level providers registered.
func DefaultProviderRegistry() *ProviderRegistry {
	r := NewProviderRegistry()
	r.RegisterLevel("random", buildRandomLevel)
	r.RegisterLevel("constant", buildConstantLevel)
	r.RegisterLevel("sequence", buildSequenceLevel)
	return r
}

func (r *ProviderRegistry) RegisterLevel(name string, factory LevelFactory) {
	r.levels[normalizeProvider(name)] = factory
}

func (r *ProviderRegistry) BuildLevel(cfg ProviderConfig) (session.LevelSource, error) {
	fn := r.levels[normalizeProvider(cfg.Provider)]
	if fn == nil {
		return nil, errorsx.Errorf(errorsx.ReasonProviderUnknown, "audio provider not registered: %q (known: %s)",
			cfg.Provider, strings.Join(r.Names(), ", "))
	}
	return fn(cfg.Settings)
}

// Names lists the registered level providers.
func (r *ProviderRegistry) Names() []string {
	out := make([]string, 0, len(r.levels))
	for name := range r.levels {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var unitRange = configutil.Range{Min: 0, Max: 1}

type randomLevelSettings struct {
	Min  *float64 `mapstructure:"min"`
	Max  *float64 `mapstructure:"max"`
	Seed uint64   `mapstructure:"seed"`
}

func buildRandomLevel(settings map[string]any) (session.LevelSource, error) {
	if err := configutil.ValidateSettings("audio.settings", settings, configutil.Schema{
		Optional: []string{"min", "max", "seed"},
		Ranges:   map[string]configutil.Range{"min": unitRange, "max": unitRange},
	}); err != nil {
		return nil, err
	}
	var s randomLevelSettings
	if err := configutil.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}
	lo := configutil.FloatValue(s.Min, 0.3)
	hi := configutil.FloatValue(s.Max, 0.9)
	if hi < lo {
		return nil, errorsx.Errorf(errorsx.ReasonProviderSettings, "audio.settings.max (%g) is below min (%g)", hi, lo)
	}
	return mock.NewRandomLevel(mock.LevelConfig{Min: lo, Max: hi, Seed: s.Seed}), nil
}

type constantLevelSettings struct {
	Level float64 `mapstructure:"level"`
}

func buildConstantLevel(settings map[string]any) (session.LevelSource, error) {
	if err := configutil.ValidateSettings("audio.settings", settings, configutil.Schema{
		Required: []string{"level"},
		Ranges:   map[string]configutil.Range{"level": unitRange},
	}); err != nil {
		return nil, err
	}
	var s constantLevelSettings
	if err := configutil.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return mock.NewConstantLevel(s.Level), nil
}

type sequenceLevelSettings struct {
	Values []float64 `mapstructure:"values"`
}

// buildSequenceLevel replays settings.values, holding the last one.
func buildSequenceLevel(settings map[string]any) (session.LevelSource, error) {
	if err := configutil.ValidateSettings("audio.settings", settings, configutil.Schema{
		Required: []string{"values"},
	}); err != nil {
		return nil, err
	}
	var s sequenceLevelSettings
	if err := configutil.DecodeSettings(settings, &s); err != nil {
		return nil, err
	}
	for i, v := range s.Values {
		if err := configutil.RequireRange(v, 0, 1, fmt.Sprintf("audio.settings.values[%d]", i)); err != nil {
			return nil, err
		}
	}
	return mock.NewSequenceLevel(s.Values...).Next, nil
}
