package cache

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RiyadMehdi7/churnvision-cache/logger"
)

// entryOverheadBytes is the fixed per-entry bookkeeping cost added to the
// serialized payload size when estimating memory usage.
const entryOverheadBytes = 100

// Cache is the facade over the entry store, eviction policy, refresh
// scheduler and persistence adapter. All methods are safe for concurrent
// use and atomic with respect to each other. A Cache must be created with
// New and released with Destroy; a destroyed Cache must not be reused.
type Cache struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	entries   map[string]*entry
	callbacks map[string]RefreshFunc
	cfg       Config
	hits      uint64
	misses    uint64
	seq       uint64
	destroyed bool

	clock   Clock
	adapter Adapter
	log     logger.Logger

	saveCh  chan struct{}
	resetCh chan time.Duration

	wg   sync.WaitGroup
	once sync.Once
}

// New constructs a Cache, loads the persisted snapshot when persistence is
// enabled, and starts the background refresh scheduler. The parent context
// bounds the cache lifetime: cancelling it has the same effect as Destroy
// on the background goroutines.
func New(ctx context.Context, cfg Config, opts ...Option) *Cache {
	o := options{
		log:   logger.NewConsoleLogger(),
		clock: realClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	childCtx, cancel := context.WithCancel(ctx)
	c := &Cache{
		ctx:       childCtx,
		cancel:    cancel,
		entries:   make(map[string]*entry),
		callbacks: make(map[string]RefreshFunc),
		cfg:       cfg.withDefaults(),
		clock:     o.clock,
		adapter:   o.adapter,
		log:       o.log.With(map[string]interface{}{"cache": uuid.NewString()[:8]}),
		saveCh:    make(chan struct{}, 1),
		resetCh:   make(chan time.Duration, 1),
	}

	if c.cfg.EnablePersistence && c.adapter != nil {
		c.loadSnapshot(ctx)
	}

	c.wg.Add(1)
	go c.runRefresh()
	if c.adapter != nil {
		c.wg.Add(1)
		go c.runPersist()
	}
	return c
}

// Get returns the value stored under key. An absent or expired entry
// counts as a miss; an expired entry is deleted on discovery (lazy
// expiration). A hit increments the entry's access count.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	now := c.clock.Now()
	if !now.Before(ent.expiresAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	ent.accessCount++
	ent.lastAccessed = now
	c.hits++
	return ent.data, true
}

// Get retrieves a typed value from the cache. It performs a direct type
// assertion for values stored in this process and falls back to JSON
// decoding for payloads rehydrated from a persisted snapshot.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	val, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	if typed, ok := val.(T); ok {
		return typed, true
	}
	if raw, ok := val.(json.RawMessage); ok {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			c.log.Warn("failed to decode snapshot payload for %q: %v", key, err)
			return zero, false
		}
		return out, true
	}
	c.log.Warn("cached value for %q has type %T, not the requested type", key, val)
	return zero, false
}

// Fetcher produces a value for a key on a cache miss.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Fetch is a cache-aside helper. On a hit it returns the cached value; on
// a miss it invokes fetch, stores the result and returns it. A fetch error
// is returned to the caller and nothing is cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, priority Priority, fetch Fetcher[T]) (T, error) {
	if val, ok := Get[T](c, key); ok {
		return val, nil
	}
	val, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, val, ttl, priority)
	return val, nil
}

// Set stores data under key. A ttl <= 0 uses the configured default; an
// empty priority means medium. Inserting a new key into a full cache
// evicts at most one victim first; an existing key is overwritten
// unconditionally with its access statistics reset. The mutation schedules
// an asynchronous snapshot and never blocks on it.
func (c *Cache) Set(key string, data any, ttl time.Duration, priority Priority) {
	if !priority.valid() {
		priority = PriorityMedium
	}
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxSize {
		c.evictOne(now)
	}
	c.seq++
	c.entries[key] = &entry{
		data:         data,
		timestamp:    now,
		expiresAt:    now.Add(ttl),
		accessCount:  1,
		lastAccessed: now,
		priority:     priority,
		seq:          c.seq,
		size:         estimateSize(data),
	}
	c.mu.Unlock()
	c.requestSave()
}

// Invalidate deletes the entry and its refresh callback registration,
// reporting whether anything was removed.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	_, hadEntry := c.entries[key]
	_, hadCallback := c.callbacks[key]
	delete(c.entries, key)
	delete(c.callbacks, key)
	c.mu.Unlock()
	c.requestSave()
	return hadEntry || hadCallback
}

// InvalidatePattern deletes every key that contains pattern as a substring
// or matches it as a regular expression, returning the number removed.
// A malformed regular expression degrades to substring matching only.
func (c *Cache) InvalidatePattern(pattern string) int {
	re, reErr := regexp.Compile(pattern)
	if reErr != nil {
		c.log.Debug("pattern %q is not a valid regexp, matching by substring only", pattern)
	}
	c.mu.Lock()
	var removed int
	for key := range c.entries {
		if strings.Contains(key, pattern) || (reErr == nil && re.MatchString(key)) {
			delete(c.entries, key)
			delete(c.callbacks, key)
			removed++
		}
	}
	c.mu.Unlock()
	c.requestSave()
	return removed
}

// Clear empties the store and the callback registry and resets the hit and
// miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.callbacks = make(map[string]RefreshFunc)
	c.hits = 0
	c.misses = 0
	c.mu.Unlock()
	c.requestSave()
}

// EntryInfo returns entry metadata without counting a hit or touching the
// access statistics.
func (c *Cache) EntryInfo(key string) (EntryInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[key]
	if !ok {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Key:          key,
		Timestamp:    ent.timestamp,
		ExpiresAt:    ent.expiresAt,
		AccessCount:  ent.accessCount,
		LastAccessed: ent.lastAccessed,
		Priority:     ent.priority,
	}, true
}

// UpdateConfig merges non-nil fields into the live configuration. Changing
// the background refresh interval restarts the scheduler ticker with the
// new period.
func (c *Cache) UpdateConfig(u ConfigUpdate) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	var newInterval time.Duration
	if u.DefaultTTL != nil && *u.DefaultTTL > 0 {
		c.cfg.DefaultTTL = *u.DefaultTTL
	}
	if u.MaxSize != nil && *u.MaxSize > 0 {
		c.cfg.MaxSize = *u.MaxSize
	}
	if u.EnablePersistence != nil {
		c.cfg.EnablePersistence = *u.EnablePersistence
	}
	if u.BackgroundRefreshInterval != nil && *u.BackgroundRefreshInterval > 0 &&
		*u.BackgroundRefreshInterval != c.cfg.BackgroundRefreshInterval {
		c.cfg.BackgroundRefreshInterval = *u.BackgroundRefreshInterval
		newInterval = *u.BackgroundRefreshInterval
	}
	c.mu.Unlock()
	if newInterval > 0 {
		// Replace any unconsumed reset so back-to-back updates leave the
		// ticker on the latest interval.
		for {
			select {
			case c.resetCh <- newInterval:
				return
			default:
			}
			select {
			case <-c.resetCh:
			default:
			}
		}
	}
}

// Config returns a copy of the live configuration.
func (c *Cache) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Destroy stops the background goroutines and clears all state. In-flight
// refresh callbacks are allowed to complete but their results are
// discarded. Destroy is idempotent; the instance must not be reused.
func (c *Cache) Destroy() {
	c.once.Do(func() {
		c.mu.Lock()
		c.destroyed = true
		c.entries = make(map[string]*entry)
		c.callbacks = make(map[string]RefreshFunc)
		c.hits = 0
		c.misses = 0
		c.mu.Unlock()
		c.cancel()
		c.wg.Wait()
	})
}

// estimateSize approximates the in-memory footprint of a payload as twice
// its serialized size. Unserializable payloads count as overhead only.
func estimateSize(data any) int {
	buf, err := json.Marshal(data)
	if err != nil {
		return payloadSize(0)
	}
	return payloadSize(len(buf))
}

func payloadSize(serialized int) int {
	return serialized*2 + entryOverheadBytes
}
