package enums

import "fmt"

// MediaKind maps to the media_kind enum in Postgres.
type MediaKind string

const (
	MediaKindEvidencePhoto    MediaKind = "evidence_photo"
	MediaKindKeyExchangePhoto MediaKind = "key_exchange_photo"
	MediaKindSignature        MediaKind = "signature"
	MediaKindInspectionPhoto  MediaKind = "inspection_photo"
	MediaKindDocument         MediaKind = "document"
)

var validMediaKinds = []MediaKind{
	MediaKindEvidencePhoto,
	MediaKindKeyExchangePhoto,
	MediaKindSignature,
	MediaKindInspectionPhoto,
	MediaKindDocument,
}

// IsValid checks whether the given kind matches the canonical enum.
func (k MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseMediaKind converts raw strings into MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}
