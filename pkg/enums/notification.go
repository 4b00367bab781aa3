package enums

import "fmt"

// NotificationCategory maps to the notification_category enum in Postgres.
// Categories double as per-provider push preference keys.
type NotificationCategory string

const (
	NotificationBidOpportunity      NotificationCategory = "bid_opportunity"
	NotificationAppointmentReminder NotificationCategory = "appointment_reminder"
	NotificationPaymentReceived     NotificationCategory = "payment_received"
	NotificationCustomerMessage     NotificationCategory = "customer_message"
)

var validNotificationCategories = []NotificationCategory{
	NotificationBidOpportunity,
	NotificationAppointmentReminder,
	NotificationPaymentReceived,
	NotificationCustomerMessage,
}

// NotificationCategories returns every known category.
func NotificationCategories() []NotificationCategory {
	return append([]NotificationCategory(nil), validNotificationCategories...)
}

// IsValid checks whether the given category matches the canonical enum.
func (c NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw strings into NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
