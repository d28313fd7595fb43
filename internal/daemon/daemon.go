// Package daemon runs ticktrack's long-lived loops.
//
// Each loop runs in its own goroutine. A loop that returns an error or
// panics is logged at error level with fatal=true and stays stopped; the
// other loops keep running.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Error records why a daemon stopped.
type Error struct {
	Name  string
	Err   error
	Panic bool
}

func (e *Error) Error() string {
	if e.Panic {
		return fmt.Sprintf("daemon %s panicked: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("daemon %s: %v", e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Group tracks a set of daemons started with the same context.
type Group struct {
	wg sync.WaitGroup

	mu    sync.Mutex
	fails []error
}

// Go starts fn in a new goroutine. Returning ctx.Err() after cancellation
// counts as a clean stop.
func (g *Group) Go(ctx context.Context, name string, fn func(context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.run(ctx, name, fn)
	}()
}

func (g *Group) run(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			g.fail(&Error{Name: name, Err: fmt.Errorf("%v", r), Panic: true})
			slog.Error("daemon panicked",
				"daemon", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
				"fatal", true,
			)
		}
	}()

	slog.Debug("daemon started", "daemon", name)
	err := fn(ctx)
	switch {
	case err == nil:
		slog.Debug("daemon stopped", "daemon", name)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		slog.Debug("daemon stopped", "daemon", name, "reason", err)
	default:
		g.fail(&Error{Name: name, Err: err})
		slog.Error("daemon exited", "daemon", name, "error", err, "fatal", true)
	}
}

func (g *Group) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fails = append(g.fails, err)
}

// Wait blocks until every daemon has returned and reports the ones that
// stopped abnormally.
func (g *Group) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.fails...)
}
