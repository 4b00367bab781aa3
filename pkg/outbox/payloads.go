package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Typed event payloads published through the outbox. Consumers treat these
// as cache invalidation hints and refetch the aggregate over HTTP.

type BidEventData struct {
	BidID      uuid.UUID       `json:"bidId"`
	JobID      uuid.UUID       `json:"jobId"`
	ProviderID uuid.UUID       `json:"providerId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
}

type JobEventData struct {
	JobID           uuid.UUID `json:"jobId"`
	Status          string    `json:"status"`
	TransferStatus  string    `json:"transferStatus,omitempty"`
	TransferVersion int       `json:"transferVersion,omitempty"`
}

type CheckoutEventData struct {
	SessionID  uuid.UUID `json:"sessionId"`
	ProviderID uuid.UUID `json:"providerId"`
	Step       string    `json:"step"`
	Track      string    `json:"track"`
}

type NotificationEventData struct {
	NotificationID uuid.UUID `json:"notificationId"`
	ProviderID     uuid.UUID `json:"providerId"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
}

type ReminderEventData struct {
	ReminderID  uuid.UUID `json:"reminderId"`
	ProviderID  uuid.UUID `json:"providerId"`
	CustomerID  uuid.UUID `json:"customerId"`
	ServiceName string    `json:"serviceName"`
}
