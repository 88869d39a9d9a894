package kiosk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suimarket/kioskwatch/internal/domain"
	"github.com/suimarket/kioskwatch/internal/sui"
)

const (
	// minWindow is the floor on how many relevant events of each kind are
	// collected per pass, regardless of the requested limit. A small limit
	// would otherwise shrink the reconciliation window and raise the odds
	// that the purchase or delist cancelling an old listing falls outside
	// of it.
	minWindow = 25

	// maxPageSize caps a single event-query page to bound memory and
	// request latency.
	maxPageSize = 50
)

// EventSource supplies paginated historical events. *sui.Client implements
// it; tests substitute an in-memory source.
type EventSource interface {
	QueryEvents(ctx context.Context, filter sui.EventFilter, cursor *sui.EventID, limit int, descending bool) (sui.EventPage, error)
}

// Reconciler derives the currently-active listing set from the event feed.
//
// The collection windows for Listed, Purchased, and Delisted events are each
// independently bounded, so a purchase or delist older than its listing's
// position in a deep history can fall outside its window and leave a stale
// listing in the result. This is a documented approximation; callers that
// need strict consistency need a checkpointed full-history cursor or a
// server-side index instead.
type Reconciler struct {
	source  EventSource
	matcher *Matcher
	filter  sui.EventFilter
	logger  *slog.Logger
}

// NewReconciler creates a Reconciler reading from source and keeping only
// events accepted by matcher.
func NewReconciler(source EventSource, matcher *Matcher, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		source:  source,
		matcher: matcher,
		filter:  sui.KioskEventFilter(),
		logger:  logger.With(slog.String("component", "reconciler")),
	}
}

// eventMatch pairs a raw event with its parsed type identity.
type eventMatch struct {
	event  sui.Event
	parsed *ParsedEvent
}

// collect pages through the event feed newest-first until target relevant
// events of the given kind have been gathered or the feed is exhausted.
func (r *Reconciler) collect(ctx context.Context, prefix string, target int) ([]eventMatch, error) {
	var matches []eventMatch
	var cursor *sui.EventID

	for len(matches) < target {
		pageSize := target * 2
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		page, err := r.source.QueryEvents(ctx, r.filter, cursor, pageSize, true)
		if err != nil {
			return nil, fmt.Errorf("kiosk: collect %s events: %w", prefix, err)
		}
		if len(page.Data) == 0 {
			break
		}

		for i := range page.Data {
			parsed := r.matcher.Match(page.Data[i].Type, prefix)
			if parsed == nil {
				continue
			}
			matches = append(matches, eventMatch{event: page.Data[i], parsed: parsed})
			if len(matches) >= target {
				break
			}
		}

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	return matches, nil
}

// ActiveListings computes the active listing set, pre-hydration: Listed
// events are indexed by (itemId, kioskId) newest-first with the first
// occurrence winning, then Purchased and Delisted events are subtracted.
// Survivors are returned in insertion order, truncated to limit. A
// non-positive limit falls back to DefaultLimit.
func (r *Reconciler) ActiveListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	window := limit
	if window < minWindow {
		window = minWindow
	}

	listed, err := r.collect(ctx, EventListed, window)
	if err != nil {
		return nil, err
	}

	byKey := make(map[domain.ListingKey]domain.Listing, len(listed))
	order := make([]domain.ListingKey, 0, len(listed))

	for _, m := range listed {
		payload := m.event.ParsedJSON
		itemID, _ := pickString(payload, itemIDKeys...)
		kioskID, _ := pickString(payload, kioskIDKeys...)
		if itemID == "" || kioskID == "" {
			// Required identity fields missing under every known alias;
			// drop the event, not the pass.
			r.logger.DebugContext(ctx, "listed event missing identity fields",
				slog.String("tx_digest", m.event.ID.TxDigest),
			)
			continue
		}

		key := domain.ListingKey{ItemID: itemID, KioskID: kioskID}
		if _, seen := byKey[key]; seen {
			// Newest-first ordering makes the first occurrence
			// authoritative; older re-listings are ignored.
			continue
		}

		price, ok := pickString(payload, priceKeys...)
		if !ok {
			price = "0"
		}
		seller, _ := pickString(payload, sellerKeys...)

		byKey[key] = domain.Listing{
			ItemID:     itemID,
			KioskID:    kioskID,
			Price:      price,
			Seller:     seller,
			TxDigest:   m.event.ID.TxDigest,
			ItemType:   m.parsed.ItemType,
			PackageID:  m.parsed.PackageID,
			ModuleName: m.parsed.ModuleName,
			StructName: m.parsed.StructName,
		}
		order = append(order, key)
	}

	if len(byKey) == 0 {
		return nil, nil
	}

	// Both subtractions must complete before the survivors are decided.
	if err := r.subtract(ctx, EventPurchased, window, purchaseKioskKeys, byKey); err != nil {
		return nil, err
	}
	if err := r.subtract(ctx, EventDelisted, window, kioskIDKeys, byKey); err != nil {
		return nil, err
	}

	survivors := make([]domain.Listing, 0, len(byKey))
	for _, key := range order {
		listing, ok := byKey[key]
		if !ok {
			continue
		}
		survivors = append(survivors, listing)
		if len(survivors) >= limit {
			break
		}
	}

	r.logger.DebugContext(ctx, "reconciliation pass complete",
		slog.Int("listed", len(listed)),
		slog.Int("active", len(survivors)),
	)

	return survivors, nil
}

// subtract collects events of a cancelling kind and removes the matching
// keys from the candidate map.
func (r *Reconciler) subtract(ctx context.Context, prefix string, window int, kioskKeys []string, byKey map[domain.ListingKey]domain.Listing) error {
	matches, err := r.collect(ctx, prefix, window)
	if err != nil {
		return err
	}

	for _, m := range matches {
		payload := m.event.ParsedJSON
		itemID, _ := pickString(payload, itemIDKeys...)
		kioskID, _ := pickString(payload, kioskKeys...)
		if itemID == "" || kioskID == "" {
			continue
		}
		delete(byKey, domain.ListingKey{ItemID: itemID, KioskID: kioskID})
	}

	return nil
}
