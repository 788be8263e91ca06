package cache

import "time"

// highPriorityMargin is the overflow factor past which high-priority
// entries lose their eviction exemption.
const highPriorityMargin = 1.2

// minAgeSeconds floors the age term of the eviction score so an entry
// accessed in the same instant as the eviction check cannot divide by zero.
const minAgeSeconds = 0.001

// evictionScore ranks an entry's worth: frequently accessed, recently
// touched, high-priority entries score high; stale low-priority ones score
// low. The lowest score is evicted.
func (e *entry) evictionScore(now time.Time) float64 {
	age := now.Sub(e.lastAccessed).Seconds()
	if age < minAgeSeconds {
		age = minAgeSeconds
	}
	return float64(e.accessCount*e.priority.weight()) / age
}

// evictOne removes the lowest-scoring candidate to make room for an
// insert. High-priority entries are not candidates until the store has
// overflowed past highPriorityMargin x MaxSize. Ties are broken by
// insertion order, oldest first. Returns false when every entry is exempt,
// in which case the caller's insert is allowed to overflow by one.
//
// Caller must hold c.mu.
func (c *Cache) evictOne(now time.Time) bool {
	allowHigh := float64(len(c.entries)) >= float64(c.cfg.MaxSize)*highPriorityMargin
	var (
		victim    string
		victimEnt *entry
		found     bool
	)
	for key, ent := range c.entries {
		if ent.priority == PriorityHigh && !allowHigh {
			continue
		}
		if !found {
			victim, victimEnt, found = key, ent, true
			continue
		}
		score := ent.evictionScore(now)
		best := victimEnt.evictionScore(now)
		if score < best || (score == best && ent.seq < victimEnt.seq) {
			victim, victimEnt = key, ent
		}
	}
	if !found {
		c.log.Debug("no eviction candidate, allowing overflow past %d entries", c.cfg.MaxSize)
		return false
	}
	delete(c.entries, victim)
	c.log.Debug("evicted %q (priority=%s accesses=%d)", victim, victimEnt.priority, victimEnt.accessCount)
	return true
}
