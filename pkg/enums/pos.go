package enums

import "fmt"

// POSVendor identifies a point-of-sale integration vendor.
type POSVendor string

const (
	POSVendorSquare POSVendor = "square"
	POSVendorClover POSVendor = "clover"
)

var validPOSVendors = []POSVendor{POSVendorSquare, POSVendorClover}

// POSVendors returns every supported vendor.
func POSVendors() []POSVendor {
	return append([]POSVendor(nil), validPOSVendors...)
}

// IsValid checks whether the given vendor matches the canonical enum.
func (v POSVendor) IsValid() bool {
	for _, candidate := range validPOSVendors {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePOSVendor converts raw strings into POSVendor.
func ParsePOSVendor(value string) (POSVendor, error) {
	for _, candidate := range validPOSVendors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pos vendor %q", value)
}

// POSConnectionStatus tracks the health of a vendor link.
type POSConnectionStatus string

const (
	POSConnected    POSConnectionStatus = "connected"
	POSDisconnected POSConnectionStatus = "disconnected"
	POSError        POSConnectionStatus = "error"
)

// IsValid checks whether the given status matches the canonical enum.
func (s POSConnectionStatus) IsValid() bool {
	return s == POSConnected || s == POSDisconnected || s == POSError
}
