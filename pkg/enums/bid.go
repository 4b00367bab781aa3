package enums

import "fmt"

// BidStatus maps to the bid_status enum in Postgres. Transitions to
// accepted/rejected are performed by the marketplace, not by providers.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

var validBidStatuses = []BidStatus{
	BidStatusPending,
	BidStatusAccepted,
	BidStatusRejected,
}

// IsValid checks whether the given status matches the canonical enum.
func (s BidStatus) IsValid() bool {
	for _, candidate := range validBidStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBidStatus converts raw strings into BidStatus.
func ParseBidStatus(value string) (BidStatus, error) {
	for _, candidate := range validBidStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bid status %q", value)
}
