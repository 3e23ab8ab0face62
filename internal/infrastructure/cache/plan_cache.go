package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/platewise/v2/internal/domain/plan"
	"go.uber.org/zap"
)

// PlanCache stores validated diet plans keyed by a hash of the generation
// inputs. Storage failures are logged and swallowed: caching is an
// optimization, never a reason to fail a generation call.
type PlanCache struct {
	repo   CacheGetter
	ttl    time.Duration
	logger *zap.Logger
}

// CacheGetter is the subset of the cache repository the plan cache needs.
type CacheGetter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewPlanCache wraps a cache repository with plan serialization.
func NewPlanCache(repo CacheGetter, ttl time.Duration, logger *zap.Logger) *PlanCache {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &PlanCache{repo: repo, ttl: ttl, logger: logger.Named("plan-cache")}
}

// GetPlan returns the cached plan for key, if any.
func (c *PlanCache) GetPlan(ctx context.Context, key string) (*plan.DietPlan, bool) {
	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var p plan.DietPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("dropping undecodable cached plan", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &p, true
}

// StorePlan caches a validated plan.
func (c *PlanCache) StorePlan(ctx context.Context, key string, p *plan.DietPlan) {
	raw, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("failed to encode plan for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.repo.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("failed to store plan in cache", zap.String("key", key), zap.Error(err))
	}
}
