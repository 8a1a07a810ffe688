package di

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbukum/depkit/errors"
	"github.com/kbukum/depkit/logger"
)

func newTestRegistry(opts ...Option) *Registry {
	return New(append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

// isolateShared installs a fresh shared registry for the duration of the test.
func isolateShared(t *testing.T) *Registry {
	t.Helper()
	r := newTestRegistry(WithName("test-shared"))
	prev := ReplaceShared(r)
	t.Cleanup(func() { ReplaceShared(prev) })
	return r
}

// recoverAppError runs fn and returns the *errors.AppError it panicked with.
func recoverAppError(t *testing.T, fn func()) (err *errors.AppError) {
	t.Helper()
	defer func() {
		rec := recover()
		require.NotNil(t, rec, "expected a panic")
		appErr, ok := rec.(*errors.AppError)
		require.True(t, ok, "panic value %T is not *errors.AppError", rec)
		err = appErr
	}()
	fn()
	return nil
}

type counter struct {
	n int
}

func intFactory(v int) func() int {
	return func() int { return v }
}
