package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/suimarket/kioskwatch/internal/domain"
	"github.com/suimarket/kioskwatch/internal/sui"
)

const itemType = "0xabc::workshop_nft::WorkshopNft"

// fakeEventSource serves a fixed newest-first event history in pages.
type fakeEventSource struct {
	events   []sui.Event
	pageSize int // 0 means honor the requested limit
	queries  atomic.Int32
	err      error
}

func (f *fakeEventSource) QueryEvents(ctx context.Context, filter sui.EventFilter, cursor *sui.EventID, limit int, descending bool) (sui.EventPage, error) {
	f.queries.Add(1)
	if f.err != nil {
		return sui.EventPage{}, f.err
	}

	start := 0
	if cursor != nil {
		for i := range f.events {
			if f.events[i].ID == *cursor {
				start = i + 1
				break
			}
		}
	}

	size := limit
	if f.pageSize > 0 && f.pageSize < size {
		size = f.pageSize
	}

	end := start + size
	if end > len(f.events) {
		end = len(f.events)
	}
	if start >= len(f.events) {
		return sui.EventPage{}, nil
	}

	page := sui.EventPage{
		Data:        f.events[start:end],
		HasNextPage: end < len(f.events),
	}
	if page.HasNextPage {
		last := page.Data[len(page.Data)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func listedEvent(seq int, itemID, kioskID, price string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: "tx" + strconv.Itoa(seq), EventSeq: "0"},
		Type: EventListed + "<" + itemType + ">",
		ParsedJSON: map[string]any{
			"itemId": itemID,
			"kiosk":  kioskID,
			"price":  price,
			"seller": "0xseller",
		},
	}
}

func purchasedEvent(seq int, itemID, kioskID string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: "tx" + strconv.Itoa(seq), EventSeq: "0"},
		Type: EventPurchased + "<" + itemType + ">",
		ParsedJSON: map[string]any{
			"item_id":     itemID,
			"sellerKiosk": kioskID,
			"price":       "1000",
		},
	}
}

func delistedEvent(seq int, itemID, kioskID string) sui.Event {
	return sui.Event{
		ID:   sui.EventID{TxDigest: "tx" + strconv.Itoa(seq), EventSeq: "0"},
		Type: EventDelisted + "<" + itemType + ">",
		ParsedJSON: map[string]any{
			"itemId":   itemID,
			"kiosk_id": kioskID,
		},
	}
}

func newTestReconciler(source EventSource) *Reconciler {
	matcher := NewMatcher("workshop_nft", "WorkshopNft", nil)
	return NewReconciler(source, matcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReconciler_ActiveListings(t *testing.T) {
	// Newest first: item b was purchased, item c was delisted, items a and d
	// remain active.
	source := &fakeEventSource{events: []sui.Event{
		purchasedEvent(1, "0xb", "0xkiosk1"),
		delistedEvent(2, "0xc", "0xkiosk1"),
		listedEvent(3, "0xa", "0xkiosk1", "1000"),
		listedEvent(4, "0xb", "0xkiosk1", "2000"),
		listedEvent(5, "0xc", "0xkiosk1", "3000"),
		listedEvent(6, "0xd", "0xkiosk2", "4000"),
	}}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d listings, want 2: %+v", len(got), got)
	}
	if got[0].ItemID != "0xa" || got[1].ItemID != "0xd" {
		t.Errorf("survivors = [%s, %s], want [0xa, 0xd]", got[0].ItemID, got[1].ItemID)
	}
	if got[0].Price != "1000" {
		t.Errorf("price = %q, want %q", got[0].Price, "1000")
	}
	if got[0].Seller != "0xseller" {
		t.Errorf("seller = %q, want %q", got[0].Seller, "0xseller")
	}
	if got[0].ItemType != itemType {
		t.Errorf("item type = %q, want %q", got[0].ItemType, itemType)
	}
}

func TestReconciler_RelistNewestPriceWins(t *testing.T) {
	// The same (item, kiosk) pair listed twice; the newer event carries the
	// current price.
	source := &fakeEventSource{events: []sui.Event{
		listedEvent(1, "0xa", "0xkiosk1", "9000"),
		listedEvent(2, "0xa", "0xkiosk1", "1000"),
	}}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1", len(got))
	}
	if got[0].Price != "9000" {
		t.Errorf("price = %q, want newest %q", got[0].Price, "9000")
	}
}

func TestReconciler_SameItemTwoKiosks(t *testing.T) {
	source := &fakeEventSource{events: []sui.Event{
		listedEvent(1, "0xa", "0xkiosk1", "1000"),
		listedEvent(2, "0xa", "0xkiosk2", "2000"),
		purchasedEvent(3, "0xa", "0xkiosk2"),
	}}

	// Both kiosk listings exist; only the purchase from kiosk2 cancels.
	// The purchase event is older here, which the collection window still
	// covers.
	source.events = []sui.Event{
		purchasedEvent(3, "0xa", "0xkiosk2"),
		listedEvent(1, "0xa", "0xkiosk1", "1000"),
		listedEvent(2, "0xa", "0xkiosk2", "2000"),
	}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1: %+v", len(got), got)
	}
	if got[0].KioskID != "0xkiosk1" {
		t.Errorf("surviving kiosk = %q, want 0xkiosk1", got[0].KioskID)
	}
}

func TestReconciler_LimitTruncation(t *testing.T) {
	var events []sui.Event
	for i := 0; i < 30; i++ {
		events = append(events, listedEvent(i, fmt.Sprintf("0xitem%02d", i), "0xkiosk", "100"))
	}
	source := &fakeEventSource{events: events}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 5)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d listings, want 5", len(got))
	}
	// Newest-first order preserved.
	if got[0].ItemID != "0xitem00" || got[4].ItemID != "0xitem04" {
		t.Errorf("order = [%s .. %s], want [0xitem00 .. 0xitem04]", got[0].ItemID, got[4].ItemID)
	}
}

func TestReconciler_NonPositiveLimitUsesDefault(t *testing.T) {
	var events []sui.Event
	for i := 0; i < 8; i++ {
		events = append(events, listedEvent(i, fmt.Sprintf("0xitem%02d", i), "0xkiosk", "100"))
	}

	for _, limit := range []int{0, -1} {
		source := &fakeEventSource{events: events}
		got, err := newTestReconciler(source).ActiveListings(context.Background(), limit)
		if err != nil {
			t.Fatalf("ActiveListings(limit=%d): %v", limit, err)
		}
		if len(got) != 8 {
			t.Errorf("limit=%d: got %d listings, want all 8", limit, len(got))
		}
	}
}

func TestReconciler_SmallLimitStillSubtracts(t *testing.T) {
	// A limit of 1 must not shrink the cancellation window: the purchase
	// sits 10 events deep and still cancels its listing.
	events := []sui.Event{listedEvent(0, "0xactive", "0xkiosk", "100")}
	for i := 1; i <= 10; i++ {
		events = append(events, listedEvent(i, fmt.Sprintf("0xfill%02d", i), "0xkiosk", "100"))
	}
	events = append(events, purchasedEvent(11, "0xfill01", "0xkiosk"))
	source := &fakeEventSource{events: events}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1", len(got))
	}
	if got[0].ItemID != "0xactive" {
		t.Errorf("survivor = %q, want 0xactive", got[0].ItemID)
	}

	// 0xfill01 must be gone even though the caller asked for one listing.
	for _, l := range got {
		if l.ItemID == "0xfill01" {
			t.Error("purchased listing survived")
		}
	}
}

func TestReconciler_PaginatesUntilTarget(t *testing.T) {
	// Relevant events interleaved with noise across small pages force the
	// collector to follow cursors.
	var events []sui.Event
	for i := 0; i < 40; i++ {
		if i%4 == 0 {
			events = append(events, listedEvent(i, fmt.Sprintf("0xitem%02d", i), "0xkiosk", "100"))
		} else {
			events = append(events, sui.Event{
				ID:   sui.EventID{TxDigest: "noise" + strconv.Itoa(i), EventSeq: "0"},
				Type: "0x2::kiosk::ItemListed<0xabc::other::Thing>",
			})
		}
	}
	source := &fakeEventSource{events: events, pageSize: 7}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d listings, want 10", len(got))
	}
	if source.queries.Load() < 3 {
		t.Errorf("query count = %d, expected several paged requests", source.queries.Load())
	}
}

func TestReconciler_MissingIdentityFieldsSkipped(t *testing.T) {
	broken := sui.Event{
		ID:   sui.EventID{TxDigest: "txb", EventSeq: "0"},
		Type: EventListed + "<" + itemType + ">",
		ParsedJSON: map[string]any{
			"price": "100",
		},
	}
	source := &fakeEventSource{events: []sui.Event{
		broken,
		listedEvent(1, "0xa", "0xkiosk", "100"),
	}}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != "0xa" {
		t.Fatalf("got %+v, want only 0xa", got)
	}
}

func TestReconciler_MissingPriceDefaultsToZero(t *testing.T) {
	ev := listedEvent(1, "0xa", "0xkiosk", "")
	delete(ev.ParsedJSON, "price")
	source := &fakeEventSource{events: []sui.Event{ev}}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d listings, want 1", len(got))
	}
	if got[0].Price != "0" {
		t.Errorf("price = %q, want %q", got[0].Price, "0")
	}
}

func TestReconciler_SourceErrorPropagates(t *testing.T) {
	wantErr := errors.New("fullnode unavailable")
	source := &fakeEventSource{err: wantErr}

	_, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestReconciler_EmptyFeed(t *testing.T) {
	source := &fakeEventSource{}

	got, err := newTestReconciler(source).ActiveListings(context.Background(), 10)
	if err != nil {
		t.Fatalf("ActiveListings: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d listings, want 0", len(got))
	}
}

func TestListingKey(t *testing.T) {
	l := domain.Listing{ItemID: "0xa", KioskID: "0xk"}
	if l.Key() != (domain.ListingKey{ItemID: "0xa", KioskID: "0xk"}) {
		t.Errorf("unexpected key: %+v", l.Key())
	}
}
