// internal/workers/lease/score-risk/models.go
package scorerisk

import "equireal-workers/internal/models"

type Input struct {
	Profile models.BusinessProfile `json:"profile"`
	// Strategy overrides the configured strategy with a built-in one.
	Strategy string `json:"strategy,omitempty"`
}

type Output struct {
	RiskAssessment models.RiskAssessment `json:"riskAssessment"`
	OverallRisk    float64               `json:"overallRisk"`
	RiskCategory   models.RiskCategory   `json:"riskCategory"`
}
