// internal/workers/deals/compute-dashboard-stats/models.go
package computedashboardstats

import "equireal-workers/internal/models"

type Input struct {
	// Refresh recomputes even when a cached copy exists.
	Refresh bool `json:"refresh"`
}

type Output struct {
	Stats    models.DashboardStats `json:"stats"`
	CacheHit bool                  `json:"cacheHit"`
}
