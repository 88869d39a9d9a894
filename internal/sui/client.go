// Package sui is the JSON-RPC client for a Sui fullnode. It is the only
// package that speaks the ledger's wire format; everything above it works
// with typed events and display metadata.
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/suimarket/kioskwatch/internal/domain"
)

// Client talks to a Sui fullnode over HTTP JSON-RPC.
type Client struct {
	rpcURL     string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default 30-second HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient swaps the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a fullnode client.
//
// rpcURL is the JSON-RPC endpoint, e.g. "https://fullnode.testnet.sui.io:443".
func NewClient(rpcURL string, opts ...Option) *Client {
	c := &Client{
		rpcURL: rpcURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// call performs a single JSON-RPC request and unmarshals the result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("sui: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("sui: create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sui: %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("sui: read %s response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sui: %s: unexpected status %d: %s", method, resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("sui: decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("sui: %s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("sui: decode %s result: %w", method, err)
		}
	}
	return nil
}

// QueryEvents returns one page of events matching the filter. cursor is nil
// for the first page; descending orders newest first.
func (c *Client) QueryEvents(ctx context.Context, filter EventFilter, cursor *EventID, limit int, descending bool) (EventPage, error) {
	var cursorParam any
	if cursor != nil {
		cursorParam = cursor
	}

	var page EventPage
	err := c.call(ctx, "suix_queryEvents", []any{filter, cursorParam, limit, descending}, &page)
	if err != nil {
		return EventPage{}, fmt.Errorf("sui: query events: %w", err)
	}
	return page, nil
}

// objectResponse mirrors the sui_getObject envelope, reduced to the display
// fields kioskwatch cares about.
type objectResponse struct {
	Data *struct {
		ObjectID string `json:"objectId"`
		Display  *struct {
			Data map[string]string `json:"data"`
		} `json:"display"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// GetObjectDisplay fetches the display metadata for one object. It returns
// domain.ErrNotFound when the object does not exist and domain.ErrNoDisplay
// when the object exists but carries no display template.
func (c *Client) GetObjectDisplay(ctx context.Context, objectID string) (domain.Display, error) {
	params := []any{objectID, map[string]bool{"showDisplay": true}}

	var resp objectResponse
	if err := c.call(ctx, "sui_getObject", params, &resp); err != nil {
		return domain.Display{}, fmt.Errorf("sui: get object %s: %w", objectID, err)
	}

	if resp.Error != nil || resp.Data == nil {
		return domain.Display{}, fmt.Errorf("sui: get object %s: %w", objectID, domain.ErrNotFound)
	}
	if resp.Data.Display == nil || len(resp.Data.Display.Data) == 0 {
		return domain.Display{}, fmt.Errorf("sui: object %s: %w", objectID, domain.ErrNoDisplay)
	}

	fields := resp.Data.Display.Data
	display := domain.Display{
		Name:        fields["name"],
		Description: fields["description"],
		ImageURL:    fields["image_url"],
	}
	if display.ImageURL == "" {
		// Some display templates use the camelCase spelling.
		display.ImageURL = fields["imageUrl"]
	}
	if display.Name == "" {
		display.Name = "Untitled"
	}
	return display, nil
}
