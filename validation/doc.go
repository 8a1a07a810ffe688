// Package validation checks configuration structs and request input.
//
// Struct tags are checked with go-playground/validator; field names in
// messages follow mapstructure tags, so errors point at config keys:
//
//	type TelemetryConfig struct {
//	    SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
//	}
//	err := validation.Validate(cfg) // "telemetry.sample_rate: must be at most 1"
//
// Ad-hoc checks collect errors on a Validator:
//
//	v := validation.New()
//	v.Required("key", key).Excludes("name", name, ".")
//	if err := v.Validate(); err != nil { ... }
package validation
