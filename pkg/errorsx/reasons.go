package errorsx

// ReasonCode is a short machine-readable error reason. It satisfies error so
// it can be used as an errors.Is target.
type ReasonCode string

func (r ReasonCode) Error() string { return string(r) }

const (
	ReasonUnknown ReasonCode = "unknown"

	// configuration
	ReasonConfigRead    ReasonCode = "config_read"
	ReasonConfigInvalid ReasonCode = "config_invalid"

	// audio-level providers
	ReasonProviderUnknown  ReasonCode = "provider_unknown"
	ReasonProviderSettings ReasonCode = "provider_settings"

	// lifecycle
	ReasonArtifactsPurge ReasonCode = "artifacts_purge"
	ReasonDrainTimeout   ReasonCode = "drain_timeout"
)
