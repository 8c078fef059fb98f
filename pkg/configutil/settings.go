package configutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/harunnryd/orb/pkg/errorsx"
)

// DecodeSettings decodes a free-form settings map into a typed struct.
// Keys match fields case-, underscore- and hyphen-insensitively; "150ms"
// style strings decode into time.Duration fields.
func DecodeSettings(input map[string]any, out any) error {
	if len(input) == 0 {
		return nil
	}
	cfg := &mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonProviderSettings)
	}
	return nil
}

// RequireString ensures a value is present for a required config field.
func RequireString(value, path string) error {
	if strings.TrimSpace(value) == "" {
		return errorsx.Errorf(errorsx.ReasonConfigInvalid, "%s is required", path)
	}
	return nil
}

// RequireRange ensures min <= value <= max.
func RequireRange(value, min, max float64, path string) error {
	if value < min || value > max {
		return errorsx.Errorf(errorsx.ReasonConfigInvalid, "%s must be between %g and %g, got %g", path, min, max, value)
	}
	return nil
}

// FloatValue returns fallback when value is nil.
func FloatValue(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}

// Millis converts a millisecond count into a duration; non-positive values
// yield fallback.
func Millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

// describe is used in schema errors to keep the path prefix consistent.
func describe(path string, parts []string) string {
	if path == "" {
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("%s: %s", path, strings.Join(parts, "; "))
}
