package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suimarket/kioskwatch/internal/domain"
)

// displayTTL bounds how long cached display metadata is served before the
// hydrator refetches it from the fullnode. Display templates change rarely.
const displayTTL = 5 * time.Minute

// DisplayCache implements kiosk.DisplayCache using JSON-serialized display
// metadata keyed by object ID.
//
// Key schema:
//
//	display:{objectId} - JSON-encoded domain.Display
type DisplayCache struct {
	rdb *redis.Client
}

// NewDisplayCache creates a DisplayCache backed by the given Client.
func NewDisplayCache(c *Client) *DisplayCache {
	return &DisplayCache{rdb: c.Underlying()}
}

func displayKey(objectID string) string { return "display:" + objectID }

// Get retrieves cached display metadata for an object. It returns
// domain.ErrNotFound on a miss.
func (dc *DisplayCache) Get(ctx context.Context, objectID string) (domain.Display, error) {
	data, err := dc.rdb.Get(ctx, displayKey(objectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Display{}, domain.ErrNotFound
		}
		return domain.Display{}, fmt.Errorf("redis: get display %s: %w", objectID, err)
	}

	var d domain.Display
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Display{}, fmt.Errorf("redis: unmarshal display %s: %w", objectID, err)
	}
	return d, nil
}

// Set stores display metadata for an object with the cache TTL.
func (dc *DisplayCache) Set(ctx context.Context, objectID string, d domain.Display) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("redis: marshal display %s: %w", objectID, err)
	}
	if err := dc.rdb.Set(ctx, displayKey(objectID), data, displayTTL).Err(); err != nil {
		return fmt.Errorf("redis: set display %s: %w", objectID, err)
	}
	return nil
}
