// Package bootstrap builds a service's runtime around the shared dependency
// registry.
//
// Setup applies config defaults, validates, initializes logging and OTLP
// telemetry, creates a registry wired to them and promotes it to shared, so
// dependencies resolved before bootstrap carry over. The registry's change
// events are published on Runtime.Events until Shutdown.
//
//	rt, err := bootstrap.Setup(ctx, &cfg,
//	    bootstrap.WithHost(func(r *di.Registry) di.Host { return &AppRegistry{Registry: r} }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt.OnStop(closeDatabase)
//	if err := rt.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
