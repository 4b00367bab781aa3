package types

// ServiceLine is one service entry captured during a walk-in checkout.
// Amounts are cents so the wizard never does float math.
type ServiceLine struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	LaborCents  int64   `json:"labor_cents"`
	PartsCents  int64   `json:"parts_cents"`
	Notes       *string `json:"notes,omitempty"`
}

// TotalCents is the line total.
func (l ServiceLine) TotalCents() int64 {
	return l.LaborCents + l.PartsCents
}
