package enums

import "fmt"

// TransferStatus tracks custody of a vehicle over a job's lifetime.
// Transitions are forward-only in the order declared below.
type TransferStatus string

const (
	TransferWithMember          TransferStatus = "with_member"
	TransferInTransitToProvider TransferStatus = "in_transit_to_provider"
	TransferAtProvider          TransferStatus = "at_provider"
	TransferWorkInProgress      TransferStatus = "work_in_progress"
	TransferWorkComplete        TransferStatus = "work_complete"
	TransferReadyForReturn      TransferStatus = "ready_for_return"
	TransferInTransitToMember   TransferStatus = "in_transit_to_member"
	TransferReturned            TransferStatus = "returned"
)

// TransferOrder lists the custody chain in its only legal order.
var TransferOrder = []TransferStatus{
	TransferWithMember,
	TransferInTransitToProvider,
	TransferAtProvider,
	TransferWorkInProgress,
	TransferWorkComplete,
	TransferReadyForReturn,
	TransferInTransitToMember,
	TransferReturned,
}

// IsValid checks whether the given status matches the canonical enum.
func (s TransferStatus) IsValid() bool {
	for _, candidate := range TransferOrder {
		if candidate == s {
			return true
		}
	}
	return false
}

// Ordinal returns the position of the status in the custody chain, or -1.
func (s TransferStatus) Ordinal() int {
	for i, candidate := range TransferOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseTransferStatus converts raw strings into TransferStatus.
func ParseTransferStatus(value string) (TransferStatus, error) {
	for _, candidate := range TransferOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transfer status %q", value)
}
