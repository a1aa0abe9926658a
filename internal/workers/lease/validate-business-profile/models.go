// internal/workers/lease/validate-business-profile/models.go
package validatebusinessprofile

import (
	"equireal-workers/internal/common/validation"
	"equireal-workers/internal/models"
)

type Input struct {
	Profile map[string]interface{} `json:"profile"`
}

type Output struct {
	IsValid          bool                         `json:"isValid"`
	Profile          models.BusinessProfile       `json:"profile"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
	Warnings         []string                     `json:"warnings"`
}
