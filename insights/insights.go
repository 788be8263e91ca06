// Package insights provides key-naming sugar over the cache for the
// derived artifacts the application stores: AI-generated insights keyed by
// kind, and per-employee analyses. The wrappers introduce no semantics of
// their own — they exist so every caller spells keys the same way.
package insights

import (
	"fmt"
	"time"

	"github.com/RiyadMehdi7/churnvision-cache/cache"
)

const (
	insightPrefix  = "ai-insight"
	analysisPrefix = "employee-analysis"
)

// InsightKey names an AI insight of a given kind for an entity, e.g.
// "ai-insight-churn-risk-emp-1".
func InsightKey(kind, entityID string) string {
	return fmt.Sprintf("%s-%s-%s", insightPrefix, kind, entityID)
}

// AnalysisKey names a per-employee analysis, e.g. "employee-analysis-emp-1".
func AnalysisKey(entityID string) string {
	return fmt.Sprintf("%s-%s", analysisPrefix, entityID)
}

// GetInsight retrieves a typed insight for an entity.
func GetInsight[T any](c *cache.Cache, kind, entityID string) (T, bool) {
	return cache.Get[T](c, InsightKey(kind, entityID))
}

// SetInsight stores an insight at medium priority.
func SetInsight(c *cache.Cache, kind, entityID string, data any, ttl time.Duration) {
	c.Set(InsightKey(kind, entityID), data, ttl, cache.PriorityMedium)
}

// GetAnalysis retrieves a typed per-employee analysis.
func GetAnalysis[T any](c *cache.Cache, entityID string) (T, bool) {
	return cache.Get[T](c, AnalysisKey(entityID))
}

// SetAnalysis stores an analysis at high priority; full analyses are the
// most expensive artifacts to recompute.
func SetAnalysis(c *cache.Cache, entityID string, data any, ttl time.Duration) {
	c.Set(AnalysisKey(entityID), data, ttl, cache.PriorityHigh)
}

// InvalidateEntity removes every cached artifact mentioning entityID,
// whatever its kind, and reports how many were dropped.
func InvalidateEntity(c *cache.Cache, entityID string) int {
	return c.InvalidatePattern(entityID)
}
