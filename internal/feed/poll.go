package feed

import (
	"sync"
	"time"
)

// DefaultPollInterval is the fallback poll cadence when the caller does not
// configure one.
const DefaultPollInterval = 10 * time.Second

// Poller fires a change signal on a fixed interval, independent of the
// health of any live subscription. It exists as a fallback against
// subscription drop; duplicate signals are harmless because reconciliation
// passes are idempotent snapshots.
type Poller struct {
	stopOnce sync.Once
	done     chan struct{}
}

// StartPolling begins firing onTick every interval (DefaultPollInterval
// when interval <= 0). The first tick fires after one full interval, not
// immediately.
func StartPolling(onTick func(), interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	p := &Poller{done: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				onTick()
			}
		}
	}()

	return p
}

// Stop clears the timer. It is idempotent and safe to call concurrently.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
}
