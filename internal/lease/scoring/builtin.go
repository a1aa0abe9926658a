// internal/lease/scoring/builtin.go
package scoring

import (
	"sort"

	"equireal-workers/internal/models"
)

const (
	StrategyAdditive = "additive"
	StrategyWeighted = "weighted"
)

var builtins = map[string]func() *Strategy{
	StrategyAdditive: Additive,
	StrategyWeighted: Weighted,
}

// Builtin returns a fresh copy of a named built-in strategy.
func Builtin(name string) (*Strategy, bool) {
	ctor, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// BuiltinNames lists the built-in strategy names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ptr(v float64) *float64 { return &v }

// Additive starts at 50 and sums nine independent adjustment tables.
func Additive() *Strategy {
	single := func(name string, r Rule) Factor {
		return Factor{Name: name, Weight: 1, Rules: []Rule{r}}
	}

	return &Strategy{
		Name: StrategyAdditive,
		Base: 50,
		Min:  10,
		Max:  90,
		Factors: []Factor{
			single(InputBusinessType, Rule{
				Input: InputBusinessType,
				Lookup: map[string]float64{
					models.BusinessTypeSaaSStartup:          -12,
					models.BusinessTypeEcommerce:            -8,
					models.BusinessTypeProfessionalServices: -10,
					models.BusinessTypeManufacturing:        5,
					models.BusinessTypeRestaurant:           28,
					models.BusinessTypeRetailStore:          18,
					models.BusinessTypeFranchise:            -8,
					models.BusinessTypeOther:                12,
				},
				Default: 12,
			}),
			single(InputIndustry, Rule{
				Input: InputIndustry,
				Lookup: map[string]float64{
					models.IndustryTechnology:   -12,
					models.IndustryHealthcare:   -8,
					models.IndustryFinance:      -5,
					models.IndustryEducation:    -3,
					models.IndustryFoodBeverage: 22,
					models.IndustryRetail:       15,
					models.IndustryRealEstate:   8,
					models.IndustryOther:        10,
				},
				Default: 10,
			}),
			single("revenue_traction", Rule{
				Input: InputCurrentRevenue,
				Tiers: []Tier{
					{GTE: ptr(50000), Adjust: -20},
					{GTE: ptr(20000), Adjust: -15},
					{GTE: ptr(10000), Adjust: -10},
					{GTE: ptr(5000), Adjust: -5},
					{GT: ptr(0), Adjust: 0},
				},
				Default: 15,
			}),
			single("growth_realism", Rule{
				Input: InputGrowthMultiple,
				Tiers: []Tier{
					{GT: ptr(20), Adjust: 25},
					{GT: ptr(10), Adjust: 15},
					{GT: ptr(5), Adjust: 8},
					{GT: ptr(2), Adjust: -5},
					{GT: ptr(1.2), Adjust: 0},
				},
				Default: 20,
			}),
			single(InputTeamSize, Rule{
				Input: InputTeamSize,
				Tiers: []Tier{
					{GTE: ptr(8), LTE: ptr(25), Adjust: -10},
					{GTE: ptr(5), LTE: ptr(7), Adjust: -5},
					{GTE: ptr(3), LTE: ptr(4), Adjust: 0},
					{EQ: ptr(2), Adjust: 8},
					{EQ: ptr(1), Adjust: 18},
				},
				Default: 12,
			}),
			single(InputFounderExperience, Rule{
				Input: InputFounderExperience,
				Lookup: map[string]float64{
					models.FounderSuccessfulExit: -25,
					models.FounderSerial:         -18,
					models.FounderIndustryVet:    -15,
					models.FounderFirstTime:      12,
				},
			}),
			single(InputFundingRaised, Rule{
				Input: InputFundingRaised,
				Tiers: []Tier{
					{GTE: ptr(5000000), Adjust: -25},
					{GTE: ptr(2000000), Adjust: -20},
					{GTE: ptr(500000), Adjust: -15},
					{GTE: ptr(100000), Adjust: -10},
					{GT: ptr(0), Adjust: -5},
				},
			}),
			single(InputMarketValidation, Rule{
				Input: InputMarketValidation,
				Lookup: map[string]float64{
					ValidationCustomersAndRevenue: -12,
					ValidationCustomersOnly:       -6,
					ValidationRevenueOnly:         -8,
				},
			}),
			single("runway", Rule{
				Input: InputRunwayMonths,
				Tiers: []Tier{
					{GT: ptr(24), Adjust: -15},
					{GT: ptr(18), Adjust: -10},
					{GT: ptr(12), Adjust: -5},
					{GT: ptr(6), Adjust: 5},
					{GT: ptr(3), Adjust: 15},
				},
				Default: 30,
			}),
		},
		Confidence: Line{Base: 95, Slope: -0.3},
	}
}

// Weighted blends three independent sub-scores 0.4 / 0.4 / 0.2.
func Weighted() *Strategy {
	return &Strategy{
		Name: StrategyWeighted,
		Base: 0,
		Min:  10,
		Max:  90,
		Factors: []Factor{
			{
				Name:   "industry_risk",
				Weight: 0.4,
				Rules: []Rule{{
					Input: InputIndustry,
					Lookup: map[string]float64{
						models.IndustrySaaS:          25,
						models.IndustryFinTech:       35,
						models.IndustryEcommerce:     45,
						models.IndustryRestaurants:   70,
						models.IndustryProfessional:  30,
						models.IndustryManufacturing: 50,
					},
					Default: 50,
				}},
			},
			{
				Name:   "financial_risk",
				Weight: 0.4,
				Base:   50,
				Rules: []Rule{
					{
						Input: InputCurrentRevenue,
						Tiers: []Tier{
							{GT: ptr(100000), Adjust: -20},
							{GT: ptr(50000), Adjust: -10},
							{EQ: ptr(0), Adjust: 20},
						},
					},
					{
						Input: InputIsProfitable,
						Tiers: []Tier{{EQ: ptr(1), Adjust: -15}},
					},
				},
			},
			{
				Name:   "team_risk",
				Weight: 0.2,
				Base:   50,
				Rules: []Rule{{
					Input: InputTeamSize,
					Tiers: []Tier{
						{GTE: ptr(5), LTE: ptr(50), Adjust: -15},
						{LT: ptr(3), Adjust: 20},
					},
				}},
			},
		},
		Confidence: Line{Base: 85},
		Trend:      "Stable Risk",
	}
}
