package types

import "github.com/shopspring/decimal"

// BidBreakdown is the persisted pricing snapshot attached to a bid. Every
// figure is stored as produced by the calculator so historical bids keep the
// numbers the provider saw when quoting.
type BidBreakdown struct {
	PartsCost          decimal.Decimal `json:"parts_cost"`
	LaborHours         decimal.Decimal `json:"labor_hours"`
	LaborRate          decimal.Decimal `json:"labor_rate"`
	LaborCost          decimal.Decimal `json:"labor_cost"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ProfitPercent      decimal.Decimal `json:"profit_percent"`
	ProfitAmount       decimal.Decimal `json:"profit_amount"`
	TravelFee          decimal.Decimal `json:"travel_fee"`
	TransportFee       decimal.Decimal `json:"transport_fee"`
	RushFee            decimal.Decimal `json:"rush_fee"`
	TaxRatePercent     decimal.Decimal `json:"tax_rate_percent"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	Total              decimal.Decimal `json:"total"`
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent"`
	PlatformFee        decimal.Decimal `json:"platform_fee"`
	NetToProvider      decimal.Decimal `json:"net_to_provider"`
}
