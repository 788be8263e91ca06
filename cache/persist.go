package cache

import (
	"context"
	"encoding/json"
	"sort"
	"time"
)

// persistTimeout bounds each snapshot save or load so a slow backend
// cannot wedge the persistence goroutine.
const persistTimeout = 5 * time.Second

// Record is the persisted form of a single entry. Data is kept as opaque
// JSON so a snapshot can be restored without knowing payload types;
// timestamps serialize as RFC 3339, which sorts lexicographically.
type Record struct {
	Key          string          `json:"key"`
	Data         json.RawMessage `json:"data"`
	Timestamp    time.Time       `json:"timestamp"`
	ExpiresAt    time.Time       `json:"expiresAt"`
	AccessCount  int             `json:"accessCount"`
	LastAccessed time.Time       `json:"lastAccessed"`
	Priority     Priority        `json:"priority"`
}

// Adapter persists the whole entry set as one blob under one storage key.
// Implementations must tolerate concurrent use from a single goroutine and
// treat an absent blob as (nil, nil) on Load.
type Adapter interface {
	// Load reads the stored snapshot. A missing snapshot returns nil, nil.
	Load(ctx context.Context) ([]Record, error)
	// Save replaces the stored snapshot with records.
	Save(ctx context.Context, records []Record) error
	// Close releases any resources held by the adapter.
	Close() error
}

// requestSave schedules an asynchronous snapshot. It never blocks: the
// persistence goroutine coalesces bursts of mutations into one save.
func (c *Cache) requestSave() {
	c.mu.Lock()
	enabled := c.cfg.EnablePersistence && c.adapter != nil && !c.destroyed
	c.mu.Unlock()
	if !enabled {
		return
	}
	select {
	case c.saveCh <- struct{}{}:
	default:
	}
}

func (c *Cache) runPersist() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.saveCh:
			c.saveSnapshot()
		}
	}
}

func (c *Cache) saveSnapshot() {
	c.mu.Lock()
	destroyed := c.destroyed
	c.mu.Unlock()
	if destroyed {
		// A queued save racing Destroy must not overwrite the last good
		// snapshot with the cleared map.
		return
	}
	records := c.snapshot()
	ctx, cancel := context.WithTimeout(c.ctx, persistTimeout)
	defer cancel()
	if err := c.adapter.Save(ctx, records); err != nil {
		c.log.Warn("snapshot save failed, continuing in-memory: %v", err)
		return
	}
	c.log.Trace("snapshot saved (%d entries)", len(records))
}

// snapshot serializes the live entry set. Entries whose payloads cannot be
// serialized are skipped with a warning rather than failing the snapshot.
func (c *Cache) snapshot() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]Record, 0, len(c.entries))
	for key, ent := range c.entries {
		data, err := json.Marshal(ent.data)
		if err != nil {
			c.log.Warn("skipping unserializable entry %q: %v", key, err)
			continue
		}
		records = append(records, Record{
			Key:          key,
			Data:         data,
			Timestamp:    ent.timestamp,
			ExpiresAt:    ent.expiresAt,
			AccessCount:  ent.accessCount,
			LastAccessed: ent.lastAccessed,
			Priority:     ent.priority,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records
}

// loadSnapshot restores non-expired records into the entry map. Any load
// failure degrades to an empty cache; startup is never blocked.
func (c *Cache) loadSnapshot(ctx context.Context) {
	lctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	records, err := c.adapter.Load(lctx)
	if err != nil {
		c.log.Warn("snapshot load failed, starting empty: %v", err)
		return
	}
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var restored int
	for _, r := range records {
		if !r.ExpiresAt.After(now) {
			continue
		}
		priority := r.Priority
		if !priority.valid() {
			priority = PriorityMedium
		}
		accessCount := r.AccessCount
		if accessCount < 1 {
			accessCount = 1
		}
		c.seq++
		c.entries[r.Key] = &entry{
			data:         r.Data,
			timestamp:    r.Timestamp,
			expiresAt:    r.ExpiresAt,
			accessCount:  accessCount,
			lastAccessed: r.LastAccessed,
			priority:     priority,
			seq:          c.seq,
			size:         payloadSize(len(r.Data)),
		}
		restored++
	}
	if restored > 0 {
		c.log.Debug("restored %d entries from snapshot", restored)
	}
}
