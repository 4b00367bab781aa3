package types

import "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"

// ChecklistItem is one line of an inspection result stored in jsonb.
type ChecklistItem struct {
	Key    string                     `json:"key"`
	Label  string                     `json:"label"`
	Status enums.InspectionItemStatus `json:"status"`
	Note   *string                    `json:"note,omitempty"`
}
