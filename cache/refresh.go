package cache

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// refreshThreshold is the fraction of the original TTL below which an
// entry becomes due for proactive refresh.
const refreshThreshold = 0.25

// maxConcurrentRefreshes bounds the number of callbacks in flight per tick.
const maxConcurrentRefreshes = 8

// RefreshFunc produces a replacement payload for a key nearing expiry.
// The context is cancelled when the cache is destroyed.
type RefreshFunc func(ctx context.Context) (any, error)

// RegisterRefreshCallback registers a producer for key. The registration
// is independent of the entry's lifetime: it may precede the first Set and
// survives lazy expiration, remaining in place until unregistered or the
// key is invalidated.
func (c *Cache) RegisterRefreshCallback(key string, fn RefreshFunc) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if !c.destroyed {
		c.callbacks[key] = fn
	}
	c.mu.Unlock()
}

// UnregisterRefreshCallback removes the producer registered for key.
func (c *Cache) UnregisterRefreshCallback(key string) {
	c.mu.Lock()
	delete(c.callbacks, key)
	c.mu.Unlock()
}

func (c *Cache) runRefresh() {
	defer c.wg.Done()
	c.mu.Lock()
	interval := c.cfg.BackgroundRefreshInterval
	c.mu.Unlock()
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case d := <-c.resetCh:
			ticker.Reset(d)
		case <-ticker.Chan():
			c.refreshTick(c.ctx)
		}
	}
}

// refreshTick scans for entries in the last quarter of their TTL that have
// a registered callback and dispatches all of them concurrently. Callbacks
// settle independently: a failure is logged and leaves its entry to expire
// or retry next tick, while successes re-enter through the ordinary Set
// path with the entry's original TTL and priority.
func (c *Cache) refreshTick(ctx context.Context) {
	type job struct {
		key      string
		fn       RefreshFunc
		ttl      time.Duration
		priority Priority
	}
	now := c.clock.Now()
	var jobs []job
	c.mu.Lock()
	for key, ent := range c.entries {
		timeToExpiry := ent.expiresAt.Sub(now)
		if float64(timeToExpiry) >= float64(ent.originalTTL())*refreshThreshold {
			continue
		}
		if fn, ok := c.callbacks[key]; ok {
			jobs = append(jobs, job{key, fn, ent.originalTTL(), ent.priority})
		}
	}
	c.mu.Unlock()
	if len(jobs) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentRefreshes)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			data, err := j.fn(ctx)
			if err != nil {
				// Entry left untouched; it will retry next tick or
				// expire and fall back to miss behavior.
				c.log.Warn("refresh of %q failed: %v", j.key, err)
				return nil
			}
			c.Set(j.key, data, j.ttl, j.priority)
			c.log.Trace("refreshed %q with a fresh %s TTL", j.key, j.ttl)
			return nil
		})
	}
	_ = g.Wait()
}
