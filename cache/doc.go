// Package cache provides an in-process, TTL-governed cache with
// priority-aware eviction, proactive background refresh, and durable
// snapshot persistence. It exists to avoid recomputing expensive derived
// artifacts (AI-generated insights, per-employee analyses) across an
// interactive session and across process restarts.
//
// # Lifecycle
//
// Entries are created only by [Cache.Set] and read only by [Cache.Get].
// Expiration is lazy: an expired entry is removed when it is next read,
// not by a background sweep. An entry can also be removed by
// [Cache.Invalidate], [Cache.InvalidatePattern], [Cache.Clear], or by
// eviction when an insert would exceed the configured capacity.
//
// # Eviction
//
// When a new key is inserted into a full cache, the entry with the lowest
// score (accessCount x priority weight / seconds since last access) is
// evicted. High-priority entries are exempt until the cache has overflowed
// past a safety margin; if no candidate exists the insert is allowed to
// exceed capacity by one.
//
// # Background refresh
//
// A scheduler ticks at a configurable interval and, for every entry in the
// last quarter of its TTL with a registered [RefreshFunc], invokes the
// callback. All due callbacks for a tick run concurrently and settle
// independently: a failure is logged and leaves its entry untouched, a
// success re-enters through the ordinary Set path with the entry's
// original TTL and priority. A caller that keeps callbacks registered
// therefore never observes a miss for a hot key.
//
// # Persistence
//
// When enabled, every mutating operation schedules an asynchronous
// best-effort snapshot through an [Adapter]. Three adapters are provided:
// [NewFileAdapter] (JSON array in a single file), [NewSQLiteAdapter]
// (single row per namespace, pure Go driver), and [NewRedisAdapter]
// (msgpack blob at one key). Snapshot failures are logged, never returned;
// a missing or corrupt snapshot at startup degrades to an empty cache.
//
// # Typed access
//
// The Cache stores values as [any]. The package-level generic [Get]
// performs a direct type assertion for values stored in this process and
// falls back to JSON decoding for values rehydrated from a snapshot.
package cache
