package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/depkit/cache"
	"github.com/kbukum/depkit/di"
	"github.com/kbukum/depkit/logger"
)

// Option configures Setup.
type Option func(*setupOptions)

type setupOptions struct {
	logger          *logger.Logger
	host            func(*di.Registry) di.Host
	store           cache.Store
	output          io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *setupOptions {
	o := &setupOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. If not set, it is initialized from the
// config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *setupOptions) {
		o.logger = l
	}
}

// WithHost builds the application's registry type around the new registry.
// The returned host becomes the shared one.
func WithHost(build func(*di.Registry) di.Host) Option {
	return func(o *setupOptions) {
		o.host = build
	}
}

// WithStore sets the cache store of the new registry.
func WithStore(s cache.Store) Option {
	return func(o *setupOptions) {
		o.store = s
	}
}

// WithOutput sets where DisplaySummary writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *setupOptions) {
		o.output = w
	}
}

// WithGracefulTimeout bounds Shutdown when its context has no deadline.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *setupOptions) {
		o.gracefulTimeout = &d
	}
}
