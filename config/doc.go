// Package config loads service configuration for applications built on the
// dependency registry.
//
// Values come from a YAML file, an optional .env file and the process
// environment, in that order of precedence (later wins). Environment keys are
// matched against nested config keys by trying every way of splitting them
// at underscores, so TELEMETRY_SAMPLE_RATE sets telemetry.sample_rate.
//
//	var cfg config.ServiceConfig
//	err := config.LoadConfig("orders-api", &cfg)
//
// Projects embed ServiceConfig in their own structs:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
//	}
package config
