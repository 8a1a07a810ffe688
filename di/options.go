package di

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/depkit/cache"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/observability"
)

// Logger is the leveled sink the registry reports to. *logger.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
}

// Option configures a Registry during creation.
type Option func(*options)

type options struct {
	name    string
	store   cache.Store
	logger  Logger
	logging bool
	meter   metric.Meter
	tracer  trace.Tracer
}

func resolveOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.name == "" {
		o.name = "default"
	}
	if o.store == nil {
		o.store = cache.NewMemory()
	}
	if o.logger == nil {
		o.logger = logger.Get("di")
	}
	if o.meter == nil {
		o.meter = observability.Meter(observability.InstrumentationName)
	}
	if o.tracer == nil {
		o.tracer = observability.Tracer(observability.InstrumentationName)
	}
	return o
}

// WithName names the registry in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithStore sets the cache store. Defaults to cache.NewMemory().
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// WithLogger sets the log sink. Defaults to logger.Get("di").
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLogging enables debug events from the start.
func WithLogging(enabled bool) Option {
	return func(o *options) { o.logging = enabled }
}

// WithMeter sets the meter registry instruments are created on.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the tracer factory invocations are recorded with.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}
