// Package notify delivers marketplace alerts to operators. Notifications
// are dispatched to all registered senders (Telegram, Discord) and can be
// filtered by event type.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/suimarket/kioskwatch/internal/domain"
)

// Event types emitted by the watch loop.
const (
	EventNewListing     = "new_listing"
	EventListingRemoved = "listing_removed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches notifications to one or more Senders, filtered by an
// allowed set of event types. An empty set admits every event.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	network domain.Network
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. network
// selects which block explorer the message links point at.
func NewNotifier(senders []Sender, events []string, network domain.Network, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		network: network,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyNewListing announces a freshly observed active listing.
func (n *Notifier) NotifyNewListing(ctx context.Context, l domain.Listing) error {
	return n.notify(ctx, EventNewListing, "New listing", formatListing(n.network, l))
}

// NotifyListingRemoved announces that a listing left the active set
// (purchased or delisted; the event feed does not say which once the
// listing is gone from the window).
func (n *Notifier) NotifyListingRemoved(ctx context.Context, key domain.ListingKey) error {
	msg := fmt.Sprintf("Item %s is no longer listed (kiosk %s)",
		domain.ShortenAddress(key.ItemID, 4),
		domain.ShortenAddress(key.KioskID, 4),
	)
	return n.notify(ctx, EventListingRemoved, "Listing removed", msg)
}

// notify forwards the message to every sender when the event type passes
// the filter.
func (n *Notifier) notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// dispatch sends through every sender; one sender failing does not prevent
// delivery to the rest.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "notification delivery failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// formatListing renders a listing alert with the price converted from MIST
// to SUI and an explorer link for the listing transaction.
func formatListing(network domain.Network, l domain.Listing) string {
	price, err := domain.MistToSui(l.Price)
	if err != nil {
		price = l.Price + " MIST"
	} else {
		price += " SUI"
	}

	name := ""
	if l.Display != nil {
		name = l.Display.Name
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s\n", name)
	}
	fmt.Fprintf(&b, "Price: %s\n", price)
	fmt.Fprintf(&b, "Item: %s\n", domain.ExplorerObjectURL(network, l.ItemID))
	if l.Seller != "" {
		fmt.Fprintf(&b, "Seller: %s\n", domain.ShortenAddress(l.Seller, 4))
	}
	fmt.Fprintf(&b, "Tx: %s", domain.ExplorerTxURL(network, l.TxDigest))
	return b.String()
}
