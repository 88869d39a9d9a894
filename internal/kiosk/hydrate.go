package kiosk

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// ObjectSource resolves display metadata for one object. *sui.Client
// implements it.
type ObjectSource interface {
	GetObjectDisplay(ctx context.Context, objectID string) (domain.Display, error)
}

// DisplayCache is an optional cache-aside layer in front of ObjectSource.
// Implementations return domain.ErrNotFound on a miss; cache failures are
// never fatal to hydration.
type DisplayCache interface {
	Get(ctx context.Context, objectID string) (domain.Display, error)
	Set(ctx context.Context, objectID string, d domain.Display) error
}

// Hydrator attaches display metadata to reconciled listings. Lookups for a
// pass are issued together and the pass waits for all of them to settle;
// a failed or display-less lookup silently drops only that one listing.
type Hydrator struct {
	objects ObjectSource
	cache   DisplayCache // may be nil
	logger  *slog.Logger
}

// NewHydrator creates a Hydrator. cache may be nil to hydrate straight from
// the object source.
func NewHydrator(objects ObjectSource, cache DisplayCache, logger *slog.Logger) *Hydrator {
	return &Hydrator{
		objects: objects,
		cache:   cache,
		logger:  logger.With(slog.String("component", "hydrator")),
	}
}

// Hydrate resolves display metadata for every candidate concurrently and
// returns the listings whose lookup succeeded, in candidate order. It never
// fails as a whole: individual lookup errors only shrink the result.
func (h *Hydrator) Hydrate(ctx context.Context, candidates []domain.Listing) []domain.Listing {
	if len(candidates) == 0 {
		return []domain.Listing{}
	}

	displays := make([]*domain.Display, len(candidates))

	var g errgroup.Group
	for i := range candidates {
		i := i
		g.Go(func() error {
			d, err := h.lookup(ctx, candidates[i].ItemID)
			if err != nil {
				h.logger.DebugContext(ctx, "display lookup failed",
					slog.String("item_id", candidates[i].ItemID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			displays[i] = &d
			return nil
		})
	}
	// Workers never return an error, so Wait observes every lookup settle.
	_ = g.Wait()

	hydrated := make([]domain.Listing, 0, len(candidates))
	for i, c := range candidates {
		if displays[i] == nil {
			continue
		}
		c.Display = displays[i]
		hydrated = append(hydrated, c)
	}
	return hydrated
}

// lookup checks the cache, falls back to the object source, and back-fills
// the cache on success.
func (h *Hydrator) lookup(ctx context.Context, itemID string) (domain.Display, error) {
	if h.cache != nil {
		if d, err := h.cache.Get(ctx, itemID); err == nil {
			return d, nil
		}
	}

	d, err := h.objects.GetObjectDisplay(ctx, itemID)
	if err != nil {
		return domain.Display{}, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, itemID, d); err != nil {
			h.logger.WarnContext(ctx, "display cache set failed",
				slog.String("item_id", itemID),
				slog.String("error", err.Error()),
			)
		}
	}
	return d, nil
}
