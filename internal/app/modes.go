package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/suimarket/kioskwatch/internal/domain"
	"github.com/suimarket/kioskwatch/internal/feed"
	"github.com/suimarket/kioskwatch/internal/server"
	"github.com/suimarket/kioskwatch/internal/server/handler"
	"github.com/suimarket/kioskwatch/internal/server/ws"
	"github.com/suimarket/kioskwatch/internal/sui"
)

// FetchMode runs a single reconciliation pass and writes the hydrated
// active listings to stdout as indented JSON.
func (a *App) FetchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting fetch mode",
		slog.Int("limit", a.cfg.Market.DefaultLimit),
	)

	listings, err := deps.Listings.FetchActiveListings(ctx, a.cfg.Market.DefaultLimit)
	if err != nil {
		return fmt.Errorf("fetch mode: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		return fmt.Errorf("fetch mode: encode listings: %w", err)
	}

	a.logger.InfoContext(ctx, "fetch complete", slog.Int("listings", len(listings)))
	return nil
}

// WatchMode keeps the active listing set continuously reconciled via the
// live subscription and the fallback poll, emitting notifications, snapshot
// rows, and archive objects as the set changes.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")
	return a.watchLoop(ctx, deps, nil)
}

// ServeMode runs the watch loop alongside the HTTP + WebSocket API server.
// Each completed reconciliation pass pushes a listings-changed signal to
// connected WebSocket clients.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode", slog.Int("port", a.cfg.Server.Port))

	hub := ws.NewHub(a.logger)

	var snapshots handler.SnapshotReader
	if deps.Snapshots != nil {
		snapshots = deps.Snapshots
	}
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.cfg.Sui.Network),
		Listings: handler.NewListingsHandler(deps.Listings, snapshots, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		return a.watchLoop(ctx, deps, func(domain.Snapshot) {
			hub.NotifyListingsChanged()
		})
	})

	// Relay cross-process invalidations from the Redis bus to this
	// instance's websocket clients; a watch-mode process elsewhere can then
	// drive pushes here. Local passes already notify the hub directly, and
	// duplicates coalesce client-side.
	if deps.SignalBus != nil {
		signals, err := deps.SignalBus.SubscribeListingsChanged(ctx)
		if err != nil {
			a.logger.WarnContext(ctx, "listings-changed bus unavailable",
				slog.String("error", err.Error()),
			)
		} else {
			g.Go(func() error {
				for range signals {
					hub.NotifyListingsChanged()
				}
				return nil
			})
		}
	}

	return g.Wait()
}

// watchLoop is the shared reconciliation loop behind watch and serve modes.
// A change signal from either the live subscription or the interval poll
// triggers one full pass; signals arriving mid-pass coalesce into a single
// follow-up pass. onSnapshot, when non-nil, observes every completed pass.
func (a *App) watchLoop(ctx context.Context, deps *Dependencies, onSnapshot func(domain.Snapshot)) error {
	signal, trigger := changeSignal()

	wsURL := a.cfg.Sui.ResolveWSURL()
	subscribeFn := func(ctx context.Context, filter sui.EventFilter, onMessage sui.EventHandler) (io.Closer, error) {
		return sui.SubscribeEvents(ctx, wsURL, filter, onMessage)
	}
	sub := feed.Subscribe(ctx, subscribeFn, deps.Matcher, trigger, a.logger)
	defer sub.Stop()

	interval := time.Duration(a.cfg.Market.PollIntervalMs) * time.Millisecond
	poller := feed.StartPolling(trigger, interval)
	defer poller.Stop()

	var prev map[domain.ListingKey]domain.Listing

	// Initial pass before the first signal arrives.
	prev = a.reconcilePass(ctx, deps, prev, onSnapshot)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-signal:
			prev = a.reconcilePass(ctx, deps, prev, onSnapshot)
		}
	}
}

// changeSignal returns a capacity-one signal channel and a non-blocking
// trigger. A burst of triggers while a pass is running collapses into a
// single pending signal, so at most one trailing pass follows any burst.
func changeSignal() (chan struct{}, func()) {
	signal := make(chan struct{}, 1)
	trigger := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}
	return signal, trigger
}

// reconcilePass runs one reconciliation, diffs the result against the
// previous pass for notifications, and hands the snapshot to the optional
// persistence and push layers. Failures in any of those layers are logged
// and do not interrupt the loop.
func (a *App) reconcilePass(ctx context.Context, deps *Dependencies, prev map[domain.ListingKey]domain.Listing, onSnapshot func(domain.Snapshot)) map[domain.ListingKey]domain.Listing {
	listings, err := deps.Listings.FetchActiveListings(ctx, a.cfg.Market.DefaultLimit)
	if err != nil {
		a.logger.ErrorContext(ctx, "reconciliation pass failed",
			slog.String("error", err.Error()),
		)
		return prev
	}

	current := make(map[domain.ListingKey]domain.Listing, len(listings))
	for _, l := range listings {
		current[l.Key()] = l
	}

	// Diff against the previous pass. The first pass has nothing to diff,
	// so it announces nothing.
	if prev != nil {
		for key, l := range current {
			if _, ok := prev[key]; !ok {
				if err := deps.Notifier.NotifyNewListing(ctx, l); err != nil {
					a.logger.WarnContext(ctx, "new listing notification failed",
						slog.String("item_id", key.ItemID),
						slog.String("error", err.Error()),
					)
				}
			}
		}
		for key := range prev {
			if _, ok := current[key]; !ok {
				if err := deps.Notifier.NotifyListingRemoved(ctx, key); err != nil {
					a.logger.WarnContext(ctx, "removed listing notification failed",
						slog.String("item_id", key.ItemID),
						slog.String("error", err.Error()),
					)
				}
			}
		}
	}

	snap := domain.Snapshot{
		TakenAt:  time.Now().UTC(),
		Listings: listings,
	}

	if deps.Snapshots != nil {
		if err := deps.Snapshots.Insert(ctx, snap); err != nil {
			a.logger.WarnContext(ctx, "snapshot insert failed",
				slog.String("error", err.Error()),
			)
		} else if keep := a.cfg.Postgres.KeepSnapshots; keep > 0 {
			if _, err := deps.Snapshots.Prune(ctx, keep); err != nil {
				a.logger.WarnContext(ctx, "snapshot prune failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
	if deps.Archiver != nil {
		if err := deps.Archiver.Archive(ctx, snap); err != nil {
			a.logger.WarnContext(ctx, "snapshot archive failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if deps.SignalBus != nil {
		if err := deps.SignalBus.PublishListingsChanged(ctx); err != nil {
			a.logger.WarnContext(ctx, "listings-changed publish failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if onSnapshot != nil {
		onSnapshot(snap)
	}

	a.logger.InfoContext(ctx, "reconciliation pass complete",
		slog.Int("listings", len(listings)),
	)

	return current
}
