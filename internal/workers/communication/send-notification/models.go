// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	RecipientType    string                 `json:"recipientType"` // "tenant" or "landlord"
	NotificationType string                 `json:"notificationType"`
	DealID           string                 `json:"dealId"`
	ProposalID       string                 `json:"proposalId,omitempty"`
	BusinessName     string                 `json:"businessName,omitempty"`
	ContactEmail     string                 `json:"contactEmail,omitempty"`
	ContactPhone     string                 `json:"contactPhone,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Reason           string                 `json:"reason,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeDealSubmitted = "deal_submitted"
	TypeDealApproved  = "deal_approved"
	TypeDealRejected  = "deal_rejected"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Recipient types
const (
	RecipientTypeTenant   = "tenant"
	RecipientTypeLandlord = "landlord"
)
