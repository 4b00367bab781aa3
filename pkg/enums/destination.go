package enums

import "fmt"

// DestinationTaskStatus is the forward-only workflow for transport-style jobs
// (airport runs, dealership drop-offs, valet, detailing pickups).
type DestinationTaskStatus string

const (
	DestinationRequested  DestinationTaskStatus = "requested"
	DestinationAssigned   DestinationTaskStatus = "assigned"
	DestinationPickedUp   DestinationTaskStatus = "picked_up"
	DestinationInProgress DestinationTaskStatus = "in_progress"
	DestinationCompleted  DestinationTaskStatus = "completed"
)

// DestinationOrder lists the workflow in its only legal order.
var DestinationOrder = []DestinationTaskStatus{
	DestinationRequested,
	DestinationAssigned,
	DestinationPickedUp,
	DestinationInProgress,
	DestinationCompleted,
}

// IsValid checks whether the given status matches the canonical enum.
func (s DestinationTaskStatus) IsValid() bool {
	return s.Ordinal() >= 0
}

// Ordinal returns the position of the status in the workflow, or -1.
func (s DestinationTaskStatus) Ordinal() int {
	for i, candidate := range DestinationOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// ParseDestinationTaskStatus converts raw strings into DestinationTaskStatus.
func ParseDestinationTaskStatus(value string) (DestinationTaskStatus, error) {
	for _, candidate := range DestinationOrder {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid destination task status %q", value)
}

// DestinationKind names the transport-style job flavors.
type DestinationKind string

const (
	DestinationAirportRun        DestinationKind = "airport_run"
	DestinationDealershipDropoff DestinationKind = "dealership_dropoff"
	DestinationValet             DestinationKind = "valet"
	DestinationDetailingPickup   DestinationKind = "detailing_pickup"
)

var validDestinationKinds = []DestinationKind{
	DestinationAirportRun,
	DestinationDealershipDropoff,
	DestinationValet,
	DestinationDetailingPickup,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k DestinationKind) IsValid() bool {
	for _, candidate := range validDestinationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}
