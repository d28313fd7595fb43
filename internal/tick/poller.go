package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/roach88/ticktrack/internal/store"
)

// DefaultInterval is the default delay between two polls.
const DefaultInterval = time.Minute

// MarkerStore persists tick markers. *store.Store implements it.
type MarkerStore interface {
	LatestTick(ctx context.Context) (store.Tick, error)
	SaveTick(ctx context.Context, marker time.Time) error
}

// Announcer fans a new tick out to external sinks. Implementations handle
// their own failures; the poller never sees them.
type Announcer interface {
	AnnounceTick(ctx context.Context, marker time.Time)
}

// PollError reports which step of a poll failed.
type PollError struct {
	Phase string // "seed", "fetch" or "persist"
	Err   error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("tick %s: %v", e.Phase, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Config configures a Poller.
type Config struct {
	Fetcher   Fetcher
	Store     MarkerStore
	Bus       *Bus
	Announcer Announcer   // optional
	Clock     clock.Clock // defaults to clock.WallClock
	Interval  time.Duration
}

// Poller detects tick changes and publishes them. It is the only publisher
// on its Bus.
type Poller struct {
	cfg Config

	mu     sync.Mutex
	last   time.Time
	seeded bool
}

// NewPoller validates cfg and returns an unseeded poller.
func NewPoller(cfg Config) (*Poller, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("tick poller: nil fetcher")
	}
	if cfg.Store == nil {
		return nil, errors.New("tick poller: nil store")
	}
	if cfg.Bus == nil {
		return nil, errors.New("tick poller: nil bus")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{cfg: cfg}, nil
}

// Seed loads the last known marker from the store so that a restart does
// not announce the current tick again. An empty store seeds the zero time.
func (p *Poller) Seed(ctx context.Context) error {
	t, err := p.cfg.Store.LatestTick(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return &PollError{Phase: "seed", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = t.Marker
	p.seeded = true

	if p.last.IsZero() {
		slog.Info("tick poller seeded", "last_tick", "none")
	} else {
		slog.Info("tick poller seeded", "last_tick", p.last.Format(time.RFC3339))
	}
	return nil
}

// Last returns the last known marker.
func (p *Poller) Last() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// PollOnce fetches the current marker and, if it is newer than the last
// known one, persists, publishes and announces it. It reports whether the
// tick changed.
func (p *Poller) PollOnce(ctx context.Context) (bool, error) {
	marker, err := p.cfg.Fetcher.LastTick(ctx)
	if err != nil {
		return false, &PollError{Phase: "fetch", Err: err}
	}

	last := p.Last()
	if !marker.After(last) {
		if marker.Before(last) {
			slog.Warn("tick marker went backwards, ignoring",
				"marker", marker.Format(time.RFC3339),
				"last_tick", last.Format(time.RFC3339),
			)
		}
		return false, nil
	}

	if err := p.cfg.Store.SaveTick(ctx, marker); err != nil {
		// last stays unchanged so the next poll tries again
		return false, &PollError{Phase: "persist", Err: err}
	}

	p.mu.Lock()
	p.last = marker
	p.mu.Unlock()

	slog.Info("new tick detected",
		"marker", marker.Format(time.RFC3339),
		"previous", last.Format(time.RFC3339),
	)

	p.cfg.Bus.Publish(marker)
	if p.cfg.Announcer != nil {
		p.cfg.Announcer.AnnounceTick(ctx, marker)
	}
	return true, nil
}

// Run seeds the poller if needed and polls every interval until ctx is
// done. Poll failures are logged and the loop continues; there is no retry
// before the next interval.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	seeded := p.seeded
	p.mu.Unlock()
	if !seeded {
		if err := p.Seed(ctx); err != nil {
			return err
		}
	}

	slog.Info("tick poller starting", "interval", p.cfg.Interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("tick poller stopping: context cancelled")
			return ctx.Err()
		case <-p.cfg.Clock.After(p.cfg.Interval):
		}

		if _, err := p.PollOnce(ctx); err != nil {
			slog.Warn("tick poll failed", "error", err)
		}
	}
}
