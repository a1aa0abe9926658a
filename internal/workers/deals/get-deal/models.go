// internal/workers/deals/get-deal/models.go
package getdeal

import "equireal-workers/internal/models"

type Input struct {
	DealID string `json:"dealId"`
	// SkipCache forces a database read and refreshes the cached copy.
	SkipCache bool `json:"skipCache,omitempty"`
}

type Output struct {
	Deal     models.Deal `json:"deal"`
	CacheHit bool        `json:"cacheHit"`
}
