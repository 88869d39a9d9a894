package kiosk

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// DefaultLimit is the listing count returned when the caller does not ask
// for a specific limit.
const DefaultLimit = 100

// Service is the public entry point for listing queries: it composes the
// reconciler and the hydrator into one call.
type Service struct {
	reconciler *Reconciler
	hydrator   *Hydrator
	logger     *slog.Logger
}

// NewService creates the listing query facade.
func NewService(reconciler *Reconciler, hydrator *Hydrator, logger *slog.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		hydrator:   hydrator,
		logger:     logger.With(slog.String("component", "listings")),
	}
}

// FetchActiveListings returns the currently-active, hydrated listings,
// newest first, at most limit entries (DefaultLimit when limit <= 0).
// Transport failures from the event feed propagate; hydration failures for
// individual items only shrink the result.
func (s *Service) FetchActiveListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := s.reconciler.ActiveListings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("kiosk: fetch active listings: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.Listing{}, nil
	}

	listings := s.hydrator.Hydrate(ctx, candidates)

	s.logger.DebugContext(ctx, "fetched active listings",
		slog.Int("candidates", len(candidates)),
		slog.Int("hydrated", len(listings)),
	)

	return listings, nil
}
