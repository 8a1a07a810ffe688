package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func validConfig() ServiceConfig {
	cfg := ServiceConfig{Name: "orders"}
	cfg.ApplyDefaults()
	return cfg
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("development defaults", func(t *testing.T) {
		cfg := ServiceConfig{Name: "orders"}
		cfg.ApplyDefaults()
		if cfg.Environment != EnvDevelopment {
			t.Errorf("expected %q, got %q", EnvDevelopment, cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Registry.Name != "orders" {
			t.Errorf("expected registry name to default to service name, got %q", cfg.Registry.Name)
		}
		if cfg.Logging.ServiceName != "orders" {
			t.Errorf("expected logging service name 'orders', got %q", cfg.Logging.ServiceName)
		}
		if cfg.Telemetry.Endpoint != DefaultTelemetryEndpoint {
			t.Errorf("expected default endpoint, got %q", cfg.Telemetry.Endpoint)
		}
		if cfg.Telemetry.Interval != DefaultMetricInterval {
			t.Errorf("expected default interval, got %v", cfg.Telemetry.Interval)
		}
		if cfg.Telemetry.SampleRate != 1 {
			t.Errorf("expected full sampling outside production, got %v", cfg.Telemetry.SampleRate)
		}
	})

	t.Run("production keeps debug and sampling off", func(t *testing.T) {
		cfg := ServiceConfig{Name: "orders", Environment: EnvProduction}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Telemetry.SampleRate != 0 {
			t.Errorf("expected sample rate 0, got %v", cfg.Telemetry.SampleRate)
		}
	})

	t.Run("explicit registry name kept", func(t *testing.T) {
		cfg := ServiceConfig{Name: "orders", Registry: RegistryConfig{Name: "core"}}
		cfg.ApplyDefaults()
		if cfg.Registry.Name != "core" {
			t.Errorf("expected 'core', got %q", cfg.Registry.Name)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr string
	}{
		{"valid", func(*ServiceConfig) {}, ""},
		{"missing name", func(c *ServiceConfig) { c.Name = "" }, "name: is required"},
		{"invalid environment", func(c *ServiceConfig) { c.Environment = "qa" }, "environment: must be one of"},
		{"registry name with separator", func(c *ServiceConfig) { c.Registry.Name = "a.b" }, "registry.name"},
		{"sample rate above one", func(c *ServiceConfig) { c.Telemetry.SampleRate = 1.5 }, "telemetry.sample_rate"},
		{"negative interval", func(c *ServiceConfig) { c.Telemetry.Interval = -time.Second }, "telemetry.interval"},
		{"enabled without endpoint", func(c *ServiceConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, "telemetry.endpoint: is required"},
		{"bad log level", func(c *ServiceConfig) { c.Logging.Level = "loud" }, "config.logging"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: orders
environment: staging
version: "1.2.0"
registry:
  log_events: true
telemetry:
  enabled: true
  endpoint: collector:4318
  sample_rate: 0.25
  interval: 30s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg ServiceConfig
	if err := LoadConfig("orders", &cfg, WithConfigFile(configPath), WithEnvPrefix("DEPKIT_TEST_NONE")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "orders" || cfg.Environment != EnvStaging || cfg.Version != "1.2.0" {
		t.Errorf("unexpected base fields: %+v", cfg)
	}
	if !cfg.Registry.LogEvents {
		t.Error("expected registry.log_events=true")
	}
	if cfg.Telemetry.Endpoint != "collector:4318" {
		t.Errorf("expected endpoint 'collector:4318', got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 0.25 {
		t.Errorf("expected sample rate 0.25, got %v", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.Interval != 30*time.Second {
		t.Errorf("expected interval 30s, got %v", cfg.Telemetry.Interval)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: orders\ntelemetry:\n  sample_rate: 0.1\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("DEPKIT_TELEMETRY_SAMPLE_RATE", "0.75")
	t.Setenv("DEPKIT_REGISTRY_LOG_EVENTS", "true")

	var cfg ServiceConfig
	if err := LoadConfig("orders", &cfg, WithConfigFile(configPath), WithEnvPrefix("depkit")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Telemetry.SampleRate != 0.75 {
		t.Errorf("expected env to win, got %v", cfg.Telemetry.SampleRate)
	}
	if !cfg.Registry.LogEvents {
		t.Error("expected registry.log_events from env")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg ServiceConfig
	err := LoadConfig("nonexistent-service", &cfg,
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvPrefix("DEPKIT_TEST_NONE"),
	)
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadServiceConfig(t *testing.T) {
	cfg, err := LoadServiceConfig("billing",
		WithFileSystem(&mockFS{}),
		WithEnvPrefix("DEPKIT_TEST_NONE"),
	)
	if err != nil {
		t.Fatalf("LoadServiceConfig failed: %v", err)
	}
	if cfg.Name != "billing" {
		t.Errorf("expected name from service name, got %q", cfg.Name)
	}
	if cfg.Registry.Name != "billing" {
		t.Errorf("expected registry name 'billing', got %q", cfg.Registry.Name)
	}
}

func TestLoadServiceConfigInvalid(t *testing.T) {
	t.Setenv("DEPKIT_BAD_ENVIRONMENT", "qa")
	_, err := LoadServiceConfig("billing",
		WithFileSystem(&mockFS{}),
		WithEnvPrefix("DEPKIT_BAD"),
	)
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("cmd", "my-svc", "config.yml"): true,
		filepath.Join("config", ".env"):              true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("my-svc", LoaderConfig{})
	if files.ConfigFile != filepath.Join("cmd", "my-svc", "config.yml") {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != filepath.Join("config", ".env") {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}
}

func TestResolverShortName(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		filepath.Join("..", "cmd", "svc", "config.yaml"): true,
	}}
	files := (&Resolver{FileSystem: fs}).ResolveFiles("my-svc", LoaderConfig{})
	if files.ConfigFile != filepath.Join("..", "cmd", "svc", "config.yaml") {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
}

func TestResolverExplicitPaths(t *testing.T) {
	files := (&Resolver{FileSystem: &mockFS{}}).ResolveFiles("svc", LoaderConfig{
		ConfigFile: "/etc/svc.yml",
		EnvFile:    "/etc/svc.env",
	})
	if files.ConfigFile != "/etc/svc.yml" || files.EnvFile != "/etc/svc.env" {
		t.Errorf("explicit paths not kept: %+v", files)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestEnvKeyVariants(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"NAME", []string{"name"}},
		{"REGISTRY_LOG_EVENTS", []string{"registry.log_events", "registry_log.events", "registry.log.events"}},
		{"TELEMETRY_SAMPLE_RATE", []string{"telemetry.sample_rate", "telemetry_sample_rate"}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got := envKeyVariants(tc.key)
			for _, want := range tc.want {
				if !slices.Contains(got, want) {
					t.Errorf("variants %v missing %q", got, want)
				}
			}
			seen := map[string]bool{}
			for _, v := range got {
				if seen[v] {
					t.Errorf("duplicate variant %q", v)
				}
				seen[v] = true
			}
		})
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	WithEnvPrefix("app_")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
	if lc.EnvPrefix != "APP" {
		t.Errorf("expected prefix 'APP', got %q", lc.EnvPrefix)
	}
}
