package enums

import "fmt"

// EscrowStatus reports whether platform-held funds exist for a job.
// Funded means a prior payment intent succeeded.
type EscrowStatus string

const (
	EscrowStatusNone     EscrowStatus = "none"
	EscrowStatusUnfunded EscrowStatus = "unfunded"
	EscrowStatusFunded   EscrowStatus = "funded"
	EscrowStatusReleased EscrowStatus = "released"
)

var validEscrowStatuses = []EscrowStatus{
	EscrowStatusNone,
	EscrowStatusUnfunded,
	EscrowStatusFunded,
	EscrowStatusReleased,
}

// IsValid checks whether the given status matches the canonical enum.
func (s EscrowStatus) IsValid() bool {
	for _, candidate := range validEscrowStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEscrowStatus converts raw strings into EscrowStatus.
func ParseEscrowStatus(value string) (EscrowStatus, error) {
	for _, candidate := range validEscrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow status %q", value)
}
