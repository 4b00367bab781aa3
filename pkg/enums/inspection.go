package enums

import "fmt"

// InspectionDepth selects which fixed checklist a walk-in inspection uses.
type InspectionDepth string

const (
	InspectionDepthQuick          InspectionDepth = "quick"
	InspectionDepthMultiPoint     InspectionDepth = "multi_point"
	InspectionDepthFullDiagnostic InspectionDepth = "full_diagnostic"
)

var validInspectionDepths = []InspectionDepth{
	InspectionDepthQuick,
	InspectionDepthMultiPoint,
	InspectionDepthFullDiagnostic,
}

// IsValid checks whether the given depth matches the canonical enum.
func (d InspectionDepth) IsValid() bool {
	for _, candidate := range validInspectionDepths {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseInspectionDepth converts raw strings into InspectionDepth.
func ParseInspectionDepth(value string) (InspectionDepth, error) {
	for _, candidate := range validInspectionDepths {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inspection depth %q", value)
}

// InspectionItemStatus is the per-item result of a checklist pass.
type InspectionItemStatus string

const (
	InspectionItemOK         InspectionItemStatus = "ok"
	InspectionItemAttention  InspectionItemStatus = "attention"
	InspectionItemUrgent     InspectionItemStatus = "urgent"
	InspectionItemNotChecked InspectionItemStatus = "not_checked"
)

var validInspectionItemStatuses = []InspectionItemStatus{
	InspectionItemOK,
	InspectionItemAttention,
	InspectionItemUrgent,
	InspectionItemNotChecked,
}

// IsValid checks whether the given status matches the canonical enum.
func (s InspectionItemStatus) IsValid() bool {
	for _, candidate := range validInspectionItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInspectionItemStatus converts raw strings into InspectionItemStatus.
func ParseInspectionItemStatus(value string) (InspectionItemStatus, error) {
	for _, candidate := range validInspectionItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inspection item status %q", value)
}
