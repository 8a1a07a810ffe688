package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/depkit/config"
	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
	"github.com/kbukum/depkit/observability"
	"github.com/kbukum/depkit/sse"
	"github.com/kbukum/depkit/version"
)

const defaultGracefulTimeout = 15 * time.Second

// Runtime is a configured service: its shared registry, logger and the
// telemetry providers to flush on shutdown.
type Runtime struct {
	Name     string
	Version  string
	Config   *config.ServiceConfig
	Registry *di.Registry
	Host     di.Host
	Logger   *logger.Logger
	Summary  *Summary
	// Events streams the registry's changes; mount it with
	// inspect.RegisterEvents.
	Events *sse.Hub

	gracefulTimeout time.Duration
	output          io.Writer

	mu        sync.Mutex
	onStop    []Hook
	shutdowns []namedShutdown
	stopOnce  sync.Once
	stopErr   error
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// Setup prepares the runtime described by cfg and makes its registry the
// shared one. Entries of the previous shared registry are migrated.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Runtime, error) {
	start := time.Now()

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()
	build := version.Get()
	if base.Version == "" {
		base.Version = build.Short()
	}
	o := resolveOptions(opts)

	rt := &Runtime{
		Name:            base.Name,
		Version:         base.Version,
		Config:          base,
		gracefulTimeout: defaultGracefulTimeout,
		output:          os.Stdout,
	}
	if o.gracefulTimeout != nil {
		rt.gracefulTimeout = *o.gracefulTimeout
	}
	if o.output != nil {
		rt.output = o.output
	}

	if o.logger != nil {
		rt.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		rt.Logger = logger.GetGlobalLogger()
	}
	registryLog := rt.Logger.WithComponent("di")
	logger.Register("di", registryLog)

	meter := observability.Meter(observability.InstrumentationName)
	tracer := observability.Tracer(observability.InstrumentationName)
	if base.Telemetry.Enabled {
		var err error
		if meter, tracer, err = rt.initTelemetry(ctx, base); err != nil {
			_ = rt.flush(ctx)
			return nil, err
		}
	}

	newHost := o.host
	if newHost == nil {
		newHost = func(r *di.Registry) di.Host { return r }
	}
	regOpts := []di.Option{
		di.WithName(base.Registry.Name),
		di.WithLogger(registryLog),
		di.WithLogging(base.Registry.LogEvents),
		di.WithMeter(meter),
		di.WithTracer(tracer),
	}
	if o.store != nil {
		regOpts = append(regOpts, di.WithStore(o.store))
	}
	rt.Host = newHost(di.New(regOpts...))
	rt.Registry = rt.Host.Base()
	moved := di.Promote(rt.Host)

	rt.Events = sse.NewHub()
	go rt.Events.Run()
	sse.Feed(rt.Registry, rt.Events)

	rt.Summary = NewSummary(base.Name, base.Version)
	rt.Summary.SetBuild(build)
	rt.Summary.SetMigrated(moved)
	rt.Summary.SetTelemetry(base.Telemetry.Enabled, base.Telemetry.Endpoint)
	rt.Summary.SetStartupDuration(time.Since(start))

	rt.Logger.Info("runtime ready", logger.Fields(
		"service", base.Name,
		"version", base.Version,
		logger.FieldRegistry, base.Registry.Name,
		logger.FieldCount, moved,
	))
	return rt, nil
}

func (rt *Runtime) initTelemetry(ctx context.Context, base *config.ServiceConfig) (metric.Meter, trace.Tracer, error) {
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    base.Name,
		ServiceVersion: base.Version,
		Environment:    base.Environment,
		Endpoint:       base.Telemetry.Endpoint,
		Insecure:       base.Telemetry.Insecure,
		SampleRate:     base.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, nil, errors.Telemetry("tracer", err)
	}
	rt.addShutdown("tracer", tp.Shutdown)

	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    base.Name,
		ServiceVersion: base.Version,
		Environment:    base.Environment,
		Endpoint:       base.Telemetry.Endpoint,
		Insecure:       base.Telemetry.Insecure,
		Interval:       base.Telemetry.Interval,
	})
	if err != nil {
		return nil, nil, errors.Telemetry("meter", err)
	}
	rt.addShutdown("meter", mp.Shutdown)

	return mp.Meter(observability.InstrumentationName), tp.Tracer(observability.InstrumentationName), nil
}

func (rt *Runtime) addShutdown(name string, fn func(context.Context) error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.shutdowns = append(rt.shutdowns, namedShutdown{name: name, fn: fn})
}

// DisplaySummary writes the startup summary.
func (rt *Runtime) DisplaySummary() {
	rt.Summary.Write(rt.output, rt.Registry)
}

// Run displays the summary, blocks until a shutdown signal or ctx is done,
// then shuts down.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.DisplaySummary()
	rt.Logger.Info("waiting for shutdown signal")
	rt.WaitForSignal(ctx)
	return rt.Shutdown(context.Background())
}

// RunTask runs a finite task and shuts down when it returns. SIGINT and
// SIGTERM cancel the task's context.
func (rt *Runtime) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskErr := task(taskCtx)
	if stopErr := rt.Shutdown(context.Background()); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// WaitForSignal blocks until SIGINT, SIGTERM or ctx cancellation.
func (rt *Runtime) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		rt.Logger.Info("received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		rt.Logger.Info("context canceled, shutting down")
		return nil
	}
}

// Shutdown runs OnStop hooks and flushes telemetry. Only the first call does
// any work; later calls return its result.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.stopOnce.Do(func() {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, rt.gracefulTimeout)
			defer cancel()
		}

		rt.Logger.Info("shutting down", logger.Fields("timeout", rt.gracefulTimeout.String()))

		rt.mu.Lock()
		hooks := append([]Hook(nil), rt.onStop...)
		rt.mu.Unlock()

		var errs []error
		if err := runHooks(ctx, hooks); err != nil {
			rt.Logger.Error("OnStop hook error", logger.ErrorFields("shutdown", err))
			errs = append(errs, err)
		}
		if rt.Events != nil {
			rt.Events.Stop()
		}
		if err := rt.flush(ctx); err != nil {
			errs = append(errs, err)
		}
		rt.stopErr = stderrors.Join(errs...)
		rt.Logger.Info("shutdown complete")
	})
	return rt.stopErr
}

// flush shuts the telemetry providers down in reverse order.
func (rt *Runtime) flush(ctx context.Context) error {
	rt.mu.Lock()
	shutdowns := rt.shutdowns
	rt.shutdowns = nil
	rt.mu.Unlock()

	var errs []error
	for i := len(shutdowns) - 1; i >= 0; i-- {
		s := shutdowns[i]
		if err := s.fn(ctx); err != nil {
			rt.Logger.Error("telemetry shutdown failed", logger.ErrorFields(s.name, err))
			errs = append(errs, errors.Telemetry(s.name, err))
		}
	}
	return stderrors.Join(errs...)
}
