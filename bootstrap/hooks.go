package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a callback run during shutdown.
type Hook func(ctx context.Context) error

// OnStop registers hooks that run at the start of Shutdown, in
// registration order, before telemetry is flushed.
func (rt *Runtime) OnStop(hooks ...Hook) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.onStop = append(rt.onStop, hooks...)
}

// runHooks runs every hook and returns the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	var first error
	for i, h := range hooks {
		if err := h(ctx); err != nil && first == nil {
			first = fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return first
}
