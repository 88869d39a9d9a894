package sui

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/suimarket/kioskwatch/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 15 * time.Second
)

// EventHandler receives each pushed event from a live subscription.
type EventHandler func(Event)

// EventSubscription owns one live suix_subscribeEvent connection. Close is
// idempotent and safe to call from any goroutine, including while the read
// loop is still delivering events.
type EventSubscription struct {
	conn      *websocket.Conn
	subID     json.Number
	onMessage EventHandler

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// subscribeNotification is the JSON-RPC push frame for an event subscription.
type subscribeNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription json.Number     `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// SubscribeEvents opens a websocket to the fullnode, registers an event
// subscription for the given filter, and delivers every pushed event to
// onMessage until the subscription is closed. Establishment honours ctx;
// once established the subscription outlives it.
func SubscribeEvents(ctx context.Context, wsURL string, filter EventFilter, onMessage EventHandler) (*EventSubscription, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sui: subscribe dial: %w", err)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  "suix_subscribeEvent",
		Params:  []any{filter},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sui: subscribe request: %w", err)
	}

	// The first frame is the subscription confirmation carrying the
	// subscription ID used for suix_unsubscribeEvent.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	var resp struct {
		Result json.Number `json:"result"`
		Error  *rpcError   `json:"error"`
	}
	if err := conn.ReadJSON(&resp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sui: subscribe confirmation: %w", err)
	}
	if resp.Error != nil {
		conn.Close()
		return nil, fmt.Errorf("sui: subscribe: rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	sub := &EventSubscription{
		conn:      conn,
		subID:     resp.Result,
		onMessage: onMessage,
		done:      make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go sub.readLoop()
	go sub.pingLoop()

	return sub, nil
}

// readLoop delivers pushed events until the connection drops or Close is
// called.
func (s *EventSubscription) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.Close()
			return
		}

		var note subscribeNotification
		if err := json.Unmarshal(data, &note); err != nil {
			continue
		}
		if note.Method != "suix_subscribeEvent" || len(note.Params.Result) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(note.Params.Result, &ev); err != nil {
			continue
		}
		if s.onMessage != nil {
			s.onMessage(ev)
		}
	}
}

// pingLoop keeps the connection alive until the subscription is closed.
func (s *EventSubscription) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				s.Close()
				return
			}
		}
	}
}

// Close unregisters the subscription (best effort) and tears down the
// connection. Subsequent calls are no-ops.
func (s *EventSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)

	// Best-effort unsubscribe; the server drops the subscription anyway
	// when the connection goes away.
	unsub := rpcRequest{
		JSONRPC: "2.0",
		ID:      "2",
		Method:  "suix_unsubscribeEvent",
		Params:  []any{s.subID},
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteJSON(unsub)
	err := s.conn.Close()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("sui: close subscription: %w", domain.ErrWSDisconnect)
	}
	return nil
}
