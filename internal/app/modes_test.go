package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/suimarket/kioskwatch/internal/config"
	"github.com/suimarket/kioskwatch/internal/domain"
	"github.com/suimarket/kioskwatch/internal/kiosk"
	"github.com/suimarket/kioskwatch/internal/notify"
	"github.com/suimarket/kioskwatch/internal/sui"
)

func TestChangeSignal_Coalesces(t *testing.T) {
	signal, trigger := changeSignal()

	for i := 0; i < 10; i++ {
		trigger()
	}

	select {
	case <-signal:
	default:
		t.Fatal("no signal pending after triggers")
	}
	select {
	case <-signal:
		t.Fatal("burst produced more than one pending signal")
	default:
	}

	// After draining, the next trigger is visible again.
	trigger()
	select {
	case <-signal:
	default:
		t.Fatal("trigger after drain not delivered")
	}
}

// scriptedEventSource serves one fixed page per reconciliation pass.
type scriptedEventSource struct {
	mu     sync.Mutex
	events []sui.Event
}

func (s *scriptedEventSource) setEvents(events []sui.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = events
}

func (s *scriptedEventSource) QueryEvents(ctx context.Context, filter sui.EventFilter, cursor *sui.EventID, limit int, descending bool) (sui.EventPage, error) {
	if err := ctx.Err(); err != nil {
		return sui.EventPage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor != nil {
		return sui.EventPage{}, nil
	}
	return sui.EventPage{Data: s.events}, nil
}

// stubObjectSource serves the same display for every object.
type stubObjectSource struct{}

func (stubObjectSource) GetObjectDisplay(ctx context.Context, objectID string) (domain.Display, error) {
	return domain.Display{Name: "Item " + objectID}, nil
}

// recordingSender captures notification messages.
type recordingSender struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, title+"\n"+message)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func listedEvent(digest, itemID, kioskID string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: digest, EventSeq: "0"},
		Type: "0x2::kiosk::ItemListed<0xabc::workshop_nft::WorkshopNft>",
		ParsedJSON: map[string]any{
			"itemId": itemID,
			"kiosk":  kioskID,
			"price":  "1000000000",
		},
	}
}

func purchasedEvent(digest, itemID, kioskID string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: digest, EventSeq: "0"},
		Type: "0x2::kiosk::ItemPurchased<0xabc::workshop_nft::WorkshopNft>",
		ParsedJSON: map[string]any{
			"itemId": itemID,
			"kiosk":  kioskID,
		},
	}
}

func newTestApp(t *testing.T, source kiosk.EventSource, sender notify.Sender) (*App, *Dependencies) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Defaults()
	a := New(&cfg, logger)

	matcher := kiosk.NewMatcher("workshop_nft", "WorkshopNft", nil)
	reconciler := kiosk.NewReconciler(source, matcher, logger)
	hydrator := kiosk.NewHydrator(stubObjectSource{}, nil, logger)

	deps := &Dependencies{
		Matcher:  matcher,
		Listings: kiosk.NewService(reconciler, hydrator, logger),
		Notifier: notify.NewNotifier([]notify.Sender{sender}, nil, domain.NetworkTestnet, logger),
	}
	return a, deps
}

func TestReconcilePass_DiffNotifications(t *testing.T) {
	source := &scriptedEventSource{}
	sender := &recordingSender{}
	a, deps := newTestApp(t, source, sender)
	ctx := context.Background()

	// First pass establishes the baseline without announcing anything.
	source.setEvents([]sui.Event{listedEvent("tx1", "0xa", "0xk")})
	prev := a.reconcilePass(ctx, deps, nil, nil)
	if len(prev) != 1 {
		t.Fatalf("baseline = %d listings, want 1", len(prev))
	}
	if got := sender.all(); len(got) != 0 {
		t.Fatalf("baseline pass sent %d notifications, want 0: %v", len(got), got)
	}

	// A new listing appears.
	source.setEvents([]sui.Event{
		listedEvent("tx2", "0xb", "0xk"),
		listedEvent("tx1", "0xa", "0xk"),
	})
	prev = a.reconcilePass(ctx, deps, prev, nil)
	if len(prev) != 2 {
		t.Fatalf("second pass = %d listings, want 2", len(prev))
	}
	msgs := sender.all()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "New listing") {
		t.Fatalf("notifications after new listing = %v, want one new-listing alert", msgs)
	}

	// The new listing is purchased.
	source.setEvents([]sui.Event{
		purchasedEvent("tx3", "0xb", "0xk"),
		listedEvent("tx2", "0xb", "0xk"),
		listedEvent("tx1", "0xa", "0xk"),
	})
	prev = a.reconcilePass(ctx, deps, prev, nil)
	if len(prev) != 1 {
		t.Fatalf("third pass = %d listings, want 1", len(prev))
	}
	msgs = sender.all()
	if len(msgs) != 2 {
		t.Fatalf("notifications after purchase = %d, want 2: %v", len(msgs), msgs)
	}
}

func TestReconcilePass_FetchFailureKeepsBaseline(t *testing.T) {
	source := &scriptedEventSource{}
	sender := &recordingSender{}
	a, deps := newTestApp(t, source, sender)
	ctx := context.Background()

	source.setEvents([]sui.Event{listedEvent("tx1", "0xa", "0xk")})
	prev := a.reconcilePass(ctx, deps, nil, nil)
	if len(prev) != 1 {
		t.Fatalf("baseline = %d listings, want 1", len(prev))
	}

	// A pass that fails must return the previous state untouched and stay
	// quiet. An exhausted context makes every query fail.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	got := a.reconcilePass(cancelled, deps, prev, nil)
	if len(got) != 1 {
		t.Fatalf("failed pass state = %d listings, want baseline 1", len(got))
	}
	if msgs := sender.all(); len(msgs) != 0 {
		t.Fatalf("failed pass sent notifications: %v", msgs)
	}
}
