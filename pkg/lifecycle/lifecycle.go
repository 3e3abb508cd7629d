// Package lifecycle sequences startup hooks, long-running background loops
// and shutdown hooks for the systems that make up the service, and answers
// readiness checks from them.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReadinessChecker is implemented by systems whose availability gates
// readiness, such as the database pool.
type ReadinessChecker interface {
	Ready() bool
}

type namedCheck struct {
	name  string
	check ReadinessChecker
}

// Coordinator is created once per process. Its context is cancelled by
// Shutdown, which then waits for every shutdown hook and background loop.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup  sync.WaitGroup
	shutdown sync.WaitGroup

	mu      sync.RWMutex
	started bool
	checks  []namedCheck
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{ctx: ctx, cancel: cancel}
}

func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently. WaitForStartup waits for it.
func (c *Coordinator) OnStartup(fn func()) {
	c.startup.Go(fn)
}

// OnShutdown runs fn concurrently right away. fn is expected to block on
// <-Context().Done() before releasing anything.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdown.Go(fn)
}

// Background runs fn with the coordinator context and counts it as part of
// shutdown.
func (c *Coordinator) Background(fn func(ctx context.Context)) {
	c.shutdown.Go(func() { fn(c.ctx) })
}

// RequireReady makes Ready depend on rc. name appears in Pending.
func (c *Coordinator) RequireReady(name string, rc ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, check: rc})
}

// Ready reports whether startup finished and no check is pending.
func (c *Coordinator) Ready() bool {
	return len(c.Pending()) == 0
}

// Pending names what is holding readiness back: "startup" until every
// startup hook has returned, then each failing check.
func (c *Coordinator) Pending() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.started {
		return []string{"startup"}
	}

	var pending []string
	for _, nc := range c.checks {
		if !nc.check.Ready() {
			pending = append(pending, nc.name)
		}
	}
	return pending
}

// WaitForStartup blocks until every startup hook has returned.
func (c *Coordinator) WaitForStartup() {
	c.startup.Wait()

	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
}

// Shutdown cancels the context and waits up to timeout for hooks and
// background loops to return.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdown.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
