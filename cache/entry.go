package cache

import "time"

// Priority is the caller-assigned importance tier of an entry. Higher
// priority entries resist eviction longer.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

func (p Priority) valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// entry is the internal representation of a cached value. Access fields
// are mutated only under the cache mutex.
type entry struct {
	data         any
	timestamp    time.Time
	expiresAt    time.Time
	accessCount  int
	lastAccessed time.Time
	priority     Priority
	seq          uint64 // insertion order, eviction tie-break
	size         int    // serialized size estimate in bytes
}

// originalTTL is the full TTL the entry was written with, regardless of
// how much of it has elapsed.
func (e *entry) originalTTL() time.Duration {
	return e.expiresAt.Sub(e.timestamp)
}

// EntryInfo exposes entry metadata without affecting access statistics.
type EntryInfo struct {
	Key          string
	Timestamp    time.Time
	ExpiresAt    time.Time
	AccessCount  int
	LastAccessed time.Time
	Priority     Priority
}
