package flight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPanicked wraps a panic recovered from a task body.
var ErrPanicked = errors.New("flight: task panicked")

type call[V any] struct {
	gate   chan struct{}
	done   chan struct{}
	cancel context.CancelFunc

	val V
	err error
}

// Group is a keyed registry of in-flight calls. The zero value is ready to use.
type Group[V any] struct {
	// Timeout bounds each task body. Zero means unbounded.
	Timeout time.Duration

	mu    sync.Mutex
	calls map[string]*call[V]
}

// Do returns the result of fn for key, running fn at most once among all
// callers that overlap in time. shared reports whether the result came from a
// call started by another caller.
//
// The body runs on a context detached from ctx; ctx only bounds how long this
// caller waits.
func (g *Group[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (v V, shared bool, err error) {
	if c, ok := g.lookup(key); ok {
		v, err = c.wait(ctx)
		return v, true, err
	}

	c := g.start(ctx, key, fn)
	if winner, ok := g.loadOrStore(key, c); ok {
		c.cancel()
		v, err = winner.wait(ctx)
		return v, true, err
	}
	close(c.gate)

	v, err = c.wait(ctx)
	return v, false, err
}

// InFlight reports whether a call for key is currently registered.
func (g *Group[V]) InFlight(key string) bool {
	_, ok := g.lookup(key)
	return ok
}

// Len returns the number of registered calls.
func (g *Group[V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *Group[V]) lookup(key string) (*call[V], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.calls[key]
	return c, ok
}

func (g *Group[V]) loadOrStore(key string, c *call[V]) (*call[V], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.calls[key]; ok {
		return existing, true
	}
	if g.calls == nil {
		g.calls = make(map[string]*call[V])
	}
	g.calls[key] = c
	return nil, false
}

func (g *Group[V]) forget(key string, c *call[V]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
}

// start launches the task goroutine. The body waits on the gate and is
// abandoned if the task is cancelled first.
func (g *Group[V]) start(parent context.Context, key string, fn func(context.Context) (V, error)) *call[V] {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	c := &call[V]{
		gate:   make(chan struct{}),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer cancel()
		select {
		case <-c.gate:
		case <-ctx.Done():
			return
		}

		runCtx := ctx
		if g.Timeout > 0 {
			var stop context.CancelFunc
			runCtx, stop = context.WithTimeout(ctx, g.Timeout)
			defer stop()
		}

		val, err := run(runCtx, fn)
		c.val, c.err = val, err
		g.forget(key, c)
		close(c.done)
	}()

	return c
}

func run[V any](ctx context.Context, fn func(context.Context) (V, error)) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return fn(ctx)
}

func (c *call[V]) wait(ctx context.Context) (V, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
