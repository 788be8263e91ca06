package cache

// Stats is a point-in-time view of cache effectiveness. Hit and miss
// counters are monotonic for the lifetime of the store and reset only by
// Clear or Destroy.
type Stats struct {
	TotalEntries int
	HitRate      float64
	MissRate     float64
	TotalHits    uint64
	TotalMisses  uint64

	// MemoryUsage is an estimate in bytes: twice the serialized payload
	// size plus a fixed overhead per entry.
	MemoryUsage int
}

// Stats computes the current statistics. Rates are zero before the first
// request; otherwise HitRate + MissRate == 1.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{
		TotalEntries: len(c.entries),
		TotalHits:    c.hits,
		TotalMisses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
		s.MissRate = float64(c.misses) / float64(total)
	}
	for _, ent := range c.entries {
		s.MemoryUsage += ent.size
	}
	return s
}
