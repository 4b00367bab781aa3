package enums

import "fmt"

// PaymentStatus mirrors the lifecycle of the external payment intent.
type PaymentStatus string

const (
	PaymentStatusRequiresPayment PaymentStatus = "requires_payment"
	PaymentStatusProcessing      PaymentStatus = "processing"
	PaymentStatusSucceeded       PaymentStatus = "succeeded"
	PaymentStatusFailed          PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusRequiresPayment,
	PaymentStatusProcessing,
	PaymentStatusSucceeded,
	PaymentStatusFailed,
}

// IsValid checks whether the given status matches the canonical enum.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw strings into PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// ReceiptChannel is a delivery channel for walk-in receipts.
type ReceiptChannel string

const (
	ReceiptChannelEmail ReceiptChannel = "email"
	ReceiptChannelSMS   ReceiptChannel = "sms"
	ReceiptChannelPrint ReceiptChannel = "print"
)

// IsValid checks whether the given channel matches the canonical enum.
func (c ReceiptChannel) IsValid() bool {
	return c == ReceiptChannelEmail || c == ReceiptChannelSMS || c == ReceiptChannelPrint
}
