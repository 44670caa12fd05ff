// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	SessionID        string                 `json:"sessionId"`
	NotificationType string                 `json:"notificationType"`
	Email            string                 `json:"email,omitempty"`
	Phone            string                 `json:"phone,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	EmailSent      bool   `json:"emailSent"`
	SMSSent        bool   `json:"smsSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeLoanApproved      = "loan_approved"
	TypeLoanRejected      = "loan_rejected"
	TypeDocumentsRequired = "documents_required"
	TypeOfferExpiring     = "offer_expiring"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
