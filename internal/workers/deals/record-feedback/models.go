// internal/workers/deals/record-feedback/models.go
package recordfeedback

import "equireal-workers/internal/common/validation"

type Input struct {
	Feedback map[string]interface{} `json:"feedback"`
}

type Output struct {
	FeedbackID       string                       `json:"feedbackId"`
	CreatedAt        string                       `json:"createdAt"`
	ValidationErrors []validation.ValidationError `json:"validationErrors,omitempty"`
}
