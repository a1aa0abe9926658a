// internal/lease/terms/builtin.go
package terms

import (
	"sort"

	"equireal-workers/internal/lease/scoring"
	"equireal-workers/internal/models"
)

const (
	PolicyAdditive = scoring.StrategyAdditive
	PolicyWeighted = scoring.StrategyWeighted
)

var builtins = map[string]func() *Policy{
	PolicyAdditive: Additive,
	PolicyWeighted: Weighted,
}

// Builtin returns a fresh copy of a named built-in policy.
func Builtin(name string) (*Policy, bool) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// BuiltinNames lists the built-in policy names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func revenueShareYears() map[string]int {
	return map[string]int{
		models.BusinessTypeSaaSStartup: 4,
		models.BusinessTypeEcommerce:   4,
		models.BusinessTypeRestaurant:  2,
	}
}

func ptr(v float64) *float64 { return &v }

// Additive pairs with the additive scoring strategy.
func Additive() *Policy {
	return &Policy{
		Name:                     PolicyAdditive,
		Upfront:                  Term{Base: 30, Slope: 15, Min: 20, Max: 50},
		Equity:                   Term{Base: 5, Slope: 4, Min: 2, Max: 12},
		RevenueShare:             Term{Base: 3, Slope: 2, Min: 1, Max: 6},
		RevenueShareYears:        revenueShareYears(),
		DefaultRevenueShareYears: 3,
		RatePerSqft:              25,
		DefaultSpaceSize:         models.DefaultSpaceSize,
		TriggerMultiplier:        1.5,
		TriggerFloor:             5000,
		SavingsLabel:             "Deferred Amount",
	}
}

// Weighted pairs with the weighted scoring strategy. Profitable and
// high-revenue tenants get flat reductions on top of the risk slope.
func Weighted() *Policy {
	return &Policy{
		Name:         PolicyWeighted,
		Upfront:      Term{Base: 30, Slope: 20, Min: 15, Max: 55},
		Equity:       Term{Base: 5, Slope: 5, Min: 1, Max: 12},
		RevenueShare: Term{Base: 3, Slope: 2, Min: 0.5, Max: 6},
		Reductions: []Reduction{
			{Name: "profitable", Input: scoring.InputIsProfitable, Tier: scoring.Tier{EQ: ptr(1)}, Upfront: 5, Equity: 1},
			{Name: "high_revenue", Input: scoring.InputCurrentRevenue, Tier: scoring.Tier{GT: ptr(100000)}, Upfront: 8, Equity: 1.5},
		},
		RevenueShareYears:        revenueShareYears(),
		DefaultRevenueShareYears: 3,
		RatePerSqft:              35,
		DefaultSpaceSize:         models.DefaultSpaceSize,
		TriggerMultiplier:        1.5,
		TriggerFloor:             5000,
		SavingsLabel:             "Monthly Savings",
	}
}
