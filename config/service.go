package config

import (
	"fmt"
	"time"

	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/validation"
)

// Environments accepted in ServiceConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Telemetry defaults.
const (
	DefaultTelemetryEndpoint = "localhost:4318"
	DefaultMetricInterval    = 15 * time.Second
)

// ServiceConfig contains the configuration every service built on the
// registry needs. Projects extend it by embedding.
type ServiceConfig struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Debug       bool            `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Registry    RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// RegistryConfig configures the shared dependency registry.
type RegistryConfig struct {
	// Name tags the registry's log output. Defaults to the service name.
	Name string `yaml:"name" mapstructure:"name" validate:"omitempty,excludes=."`
	// LogEvents enables debug events for creations, overrides and promotions.
	LogEvents bool `yaml:"log_events" mapstructure:"log_events"`
}

// TelemetryConfig configures OTLP export of registry traces and metrics.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// GetServiceConfig returns the base ServiceConfig. Embedding structs get it
// promoted.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults fills unset fields. Embedding structs that override it
// should call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	if c.Environment == EnvDevelopment {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	if c.Registry.Name == "" {
		c.Registry.Name = c.Name
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = DefaultTelemetryEndpoint
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = DefaultMetricInterval
	}
	if c.Telemetry.SampleRate == 0 && c.Environment != EnvProduction {
		c.Telemetry.SampleRate = 1
	}
}

// Validate checks struct tags and the logging section.
func (c *ServiceConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
