package cli

import (
	"github.com/juju/clock"

	"github.com/roach88/ticktrack/internal/config"
	"github.com/roach88/ticktrack/internal/notify"
	"github.com/roach88/ticktrack/internal/reconcile"
	"github.com/roach88/ticktrack/internal/store"
	"github.com/roach88/ticktrack/internal/tick"
)

type notifier interface {
	notify.Notifier
	tick.Announcer
}

// runtime holds what the long-running and one-shot commands share.
type runtime struct {
	cfg      config.Config
	store    *store.Store
	notifier notifier
	rec      *reconcile.Reconciler
}

// newRuntime opens the store and wires the notifier. With quiet set, every
// notification is discarded.
func (o *RootOptions) newRuntime(quiet bool) (*runtime, error) {
	cfg, st, err := o.openStore()
	if err != nil {
		return nil, err
	}

	var n notifier = notify.Discard{}
	if !quiet {
		n = notify.NewWebhook(cfg.SinkMap(), notify.WithTimeout(cfg.Notify.Timeout))
	}

	return &runtime{
		cfg:      cfg,
		store:    st,
		notifier: n,
		rec:      reconcile.NewReconciler(st, n),
	}, nil
}

func (r *runtime) close() {
	closeStore(r.store)
}

func (r *runtime) newPoller(bus *tick.Bus, clk clock.Clock) (*tick.Poller, error) {
	if r.cfg.Tick.URL == "" {
		return nil, NewExitError(ExitCommandError, "tick.url is not configured (set it in the config file or TICKTRACK_TICK_URL)")
	}
	fetcher := tick.NewHTTPFetcher(r.cfg.Tick.URL)
	fetcher.Timeout = r.cfg.Tick.Timeout

	p, err := tick.NewPoller(tick.Config{
		Fetcher:   fetcher,
		Store:     r.store,
		Bus:       bus,
		Announcer: r.notifier,
		Clock:     clk,
		Interval:  r.cfg.Tick.Interval,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create tick poller", err)
	}
	return p, nil
}

func (r *runtime) newScanner(clk clock.Clock) *reconcile.FallbackScanner {
	return reconcile.NewFallbackScanner(r.rec, r.store, reconcile.ScannerConfig{
		Interval: r.cfg.Fallback.Interval,
		Clock:    clk,
	})
}
