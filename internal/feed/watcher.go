// Package feed keeps listing consumers fresh: a live websocket event
// subscription plus a fallback interval poll, both driving payload-free
// change signals that callers answer with a full reconciliation pass.
package feed

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/suimarket/kioskwatch/internal/kiosk"
	"github.com/suimarket/kioskwatch/internal/sui"
)

// SubscribeFunc establishes a live event subscription and returns its
// handle. sui.SubscribeEvents is adapted to this shape at wiring time.
type SubscribeFunc func(ctx context.Context, filter sui.EventFilter, onMessage sui.EventHandler) (io.Closer, error)

// subscription establishment states. Stop before the handle arrives moves
// Pending straight to Cancelled; the late handle is then closed on arrival.
type subState int

const (
	statePending subState = iota
	stateEstablished
	stateCancelled
)

// Subscription owns one live event subscription. Establishment is
// asynchronous; Stop is idempotent and safe to call at any point, including
// before the underlying handle exists.
type Subscription struct {
	onChange func()
	logger   *slog.Logger

	mu     sync.Mutex
	state  subState
	handle io.Closer
}

// Subscribe starts establishing a live subscription and returns
// immediately. Every pushed event matching any of the three kiosk event
// kinds for the configured item type fires onChange exactly once; onChange
// carries no payload, the caller re-reconciles in response.
//
// Establishment failure is swallowed: the caller degrades to poll-only
// updates.
func Subscribe(ctx context.Context, subscribe SubscribeFunc, matcher *kiosk.Matcher, onChange func(), logger *slog.Logger) *Subscription {
	s := &Subscription{
		onChange: onChange,
		logger:   logger.With(slog.String("component", "feed_subscription")),
	}

	go s.establish(ctx, subscribe, matcher)

	return s
}

// establish runs the asynchronous subscription setup and resolves the race
// against Stop.
func (s *Subscription) establish(ctx context.Context, subscribe SubscribeFunc, matcher *kiosk.Matcher) {
	handle, err := subscribe(ctx, sui.KioskEventFilter(), func(ev sui.Event) {
		if !matcher.MatchesAny(ev.Type) {
			return
		}
		if s.active() {
			s.onChange()
		}
	})
	if err != nil {
		s.logger.Warn("live event subscription unavailable, poll-only updates",
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		s.state = stateCancelled
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateCancelled {
		// Stop won the race; the late-arriving handle must not leak.
		handle.Close()
		return
	}
	s.state = stateEstablished
	s.handle = handle
}

// active reports whether change signals should still be delivered.
func (s *Subscription) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateCancelled
}

// Stop tears the subscription down. Called while establishment is still in
// flight, it remembers the cancellation so the handle is closed the moment
// it arrives. Subsequent calls are no-ops.
func (s *Subscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case statePending:
		s.state = stateCancelled
	case stateEstablished:
		s.state = stateCancelled
		if s.handle != nil {
			s.handle.Close()
			s.handle = nil
		}
	case stateCancelled:
		// Already stopped.
	}
}
