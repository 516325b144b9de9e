// Package server coordinates the long-running pieces of the game server:
// ordered startup, signal handling, and reverse-order shutdown with a
// bounded per-service stop budget.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultStopBudget bounds how long a single service may take to stop
// before the lifecycle logs it as stuck and moves on.
const DefaultStopBudget = 10 * time.Second

// Service is a long-running component. Start blocks until the service
// exits; Stop asks it to wind down.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into a Service.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start runs the start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop runs the stop function; a nil StopFn is a no-op.
func (f *FuncService) Stop() {
	if f.StopFn != nil {
		f.StopFn()
	}
}

// Lifecycle starts services in registration order and stops them in
// reverse. The first service error, a SIGINT, or a SIGTERM triggers
// shutdown of everything.
type Lifecycle struct {
	logger     *zap.Logger
	stopBudget time.Duration

	mu       sync.Mutex
	services []namedService
}

type namedService struct {
	name string
	svc  Service
}

// NewLifecycle creates a Lifecycle with the default stop budget.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, stopBudget: DefaultStopBudget}
}

// SetStopBudget overrides the per-service stop deadline.
//
// Precondition: budget must be > 0.
func (l *Lifecycle) SetStopBudget(budget time.Duration) {
	if budget > 0 {
		l.stopBudget = budget
	}
}

// Add registers a named service. Must be called before Run.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, svc: svc})
}

// Run starts every service and blocks until a termination signal arrives,
// the context is cancelled, or a service fails. It then stops services in
// reverse order.
//
// Postcondition: every service's Stop has been invoked when Run returns.
func (l *Lifecycle) Run(ctx context.Context) error {
	startedAt := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	services := make([]namedService, len(l.services))
	copy(services, l.services)
	l.mu.Unlock()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		ns := ns
		go func() {
			l.logger.Info("service starting", zap.String("service", ns.name))
			if err := ns.svc.Start(); err != nil {
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
				cancel()
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("signal received", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service failed", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled")
	}

	l.stopAll(services)
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(startedAt)))
	return runErr
}

// stopAll stops services in reverse registration order, each bounded by
// the stop budget. A stuck service is logged and abandoned so the rest of
// the shutdown still runs.
func (l *Lifecycle) stopAll(services []namedService) {
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		done := make(chan struct{})
		go func() {
			ns.svc.Stop()
			close(done)
		}()
		select {
		case <-done:
			l.logger.Info("service stopped", zap.String("service", ns.name))
		case <-time.After(l.stopBudget):
			l.logger.Warn("service stop exceeded budget",
				zap.String("service", ns.name),
				zap.Duration("budget", l.stopBudget))
		}
	}
}
