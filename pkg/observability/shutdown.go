package observability

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownFunc is a function called during graceful shutdown
type ShutdownFunc func(ctx context.Context) error

// ShutdownManager coordinates graceful shutdown of service components
type ShutdownManager struct {
	logger  *Logger
	timeout time.Duration
	funcs   []namedShutdownFunc
	signals chan os.Signal
}

type namedShutdownFunc struct {
	name string
	fn   ShutdownFunc
}

// NewShutdownManager creates a shutdown manager with the given timeout
func NewShutdownManager(logger *Logger, timeout time.Duration) *ShutdownManager {
	return &ShutdownManager{
		logger:  logger,
		timeout: timeout,
		signals: make(chan os.Signal, 1),
	}
}

// Register adds a named shutdown function. Functions run in reverse
// registration order, so register dependencies before their dependents.
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.funcs = append(sm.funcs, namedShutdownFunc{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM arrives, then runs the registered
// shutdown functions. It returns once shutdown completes or times out.
func (sm *ShutdownManager) Wait() {
	signal.Notify(sm.signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sm.signals
	sm.logger.WithField("signal", sig.String()).Info("shutdown signal received")
	sm.Shutdown()
}

// Shutdown runs the registered shutdown functions in reverse order
func (sm *ShutdownManager) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	for i := len(sm.funcs) - 1; i >= 0; i-- {
		entry := sm.funcs[i]
		sm.logger.WithField("component", entry.name).Info("shutting down component")
		if err := entry.fn(ctx); err != nil {
			sm.logger.WithField("component", entry.name).WithError(err).Error("component shutdown failed")
		}
	}
	sm.logger.Info("shutdown complete")
}
