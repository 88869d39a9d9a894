package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// maxListingLimit caps a single API request's listing count; it bounds both
// the reconciliation window and hydration fan-out per request.
const maxListingLimit = 200

// ListingFetcher is the facade the handler queries. *kiosk.Service
// implements it.
type ListingFetcher interface {
	FetchActiveListings(ctx context.Context, limit int) ([]domain.Listing, error)
}

// SnapshotReader serves archived snapshots. Nil when Postgres is not
// configured.
type SnapshotReader interface {
	Latest(ctx context.Context, n int) ([]domain.Snapshot, error)
}

// ListingsHandler serves the active listing set and its archived history.
type ListingsHandler struct {
	listings  ListingFetcher
	snapshots SnapshotReader
	logger    *slog.Logger
}

// NewListingsHandler creates a ListingsHandler. snapshots may be nil.
func NewListingsHandler(listings ListingFetcher, snapshots SnapshotReader, logger *slog.Logger) *ListingsHandler {
	return &ListingsHandler{
		listings:  listings,
		snapshots: snapshots,
		logger:    logger.With(slog.String("component", "listings_handler")),
	}
}

// List runs a full reconciliation pass and returns the hydrated active
// listings.
// GET /api/listings?limit=N
func (h *ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0, maxListingLimit)

	listings, err := h.listings.FetchActiveListings(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "fetch active listings failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "unable to load listings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"listings": listings,
		"count":    len(listings),
	})
}

// ListSnapshots returns recent archived snapshots, newest first.
// GET /api/listings/snapshots?limit=N
func (h *ListingsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshot history not configured")
		return
	}

	limit := queryInt(r, "limit", 10, 100)

	snaps, err := h.snapshots.Latest(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load snapshots failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "unable to load snapshots")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"snapshots": snaps,
		"count":     len(snaps),
	})
}
