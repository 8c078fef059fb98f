package configutil

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/harunnryd/orb/pkg/errorsx"
)

// Schema describes the keys a provider settings map may carry.
// Key matching ignores case, underscores and hyphens.
type Schema struct {
	Required []string
	Optional []string
	// Ranges bounds numeric keys, inclusive. Keys listed here must also be
	// Required or Optional.
	Ranges       map[string]Range
	AllowUnknown bool
}

type Range struct {
	Min, Max float64
}

// ValidateSettings checks input against schema and reports every problem in
// one provider_settings error prefixed with path (for example
// "audio.settings").
func ValidateSettings(path string, input map[string]any, schema Schema) error {
	byKey := make(map[string]any, len(input))
	names := make(map[string]string, len(input))
	for k, v := range input {
		nk := normalizeKey(k)
		byKey[nk] = v
		names[nk] = k
	}

	var missing, unknown, invalid []string
	allowed := make(map[string]bool, len(schema.Required)+len(schema.Optional))
	for _, k := range schema.Required {
		nk := normalizeKey(k)
		allowed[nk] = true
		if v, ok := byKey[nk]; !ok || isEmptyValue(v) {
			missing = append(missing, k)
		}
	}
	for _, k := range schema.Optional {
		allowed[normalizeKey(k)] = true
	}
	if !schema.AllowUnknown {
		for nk, original := range names {
			if !allowed[nk] {
				unknown = append(unknown, original)
			}
		}
	}
	for k, r := range schema.Ranges {
		v, ok := byKey[normalizeKey(k)]
		if !ok || isEmptyValue(v) {
			continue
		}
		f, ok := toFloat(v)
		switch {
		case !ok:
			invalid = append(invalid, fmt.Sprintf("%s is not a number", k))
		case f < r.Min || f > r.Max:
			invalid = append(invalid, fmt.Sprintf("%s=%g outside [%g, %g]", k, f, r.Min, r.Max))
		}
	}

	if len(missing)+len(unknown)+len(invalid) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(unknown)
	sort.Strings(invalid)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		parts = append(parts, "unknown: "+strings.Join(unknown, ", "))
	}
	parts = append(parts, invalid...)
	return errorsx.New(errorsx.ReasonProviderSettings, describe(path, parts))
}

// isEmptyValue treats nil, blank strings and empty lists or maps as absent.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
