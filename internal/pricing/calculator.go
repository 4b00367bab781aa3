package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

var (
	hundred = decimal.NewFromInt(100)
)

// Defaults carries the platform-controlled knobs of the calculator.
type Defaults struct {
	PlatformFeePercent decimal.Decimal
	RushPercent        decimal.Decimal
}

// StandardDefaults returns the production fee schedule: 10% platform fee and
// a 25% rush surcharge.
func StandardDefaults() Defaults {
	return Defaults{
		PlatformFeePercent: decimal.NewFromInt(10),
		RushPercent:        decimal.NewFromInt(25),
	}
}

// Inputs are the provider-entered quote figures. Zero values are legal and
// simply contribute nothing.
type Inputs struct {
	PartsCost     decimal.Decimal
	LaborHours    decimal.Decimal
	LaborRate     decimal.Decimal
	ProfitPercent decimal.Decimal
	TravelFee     decimal.Decimal
	TransportFee  decimal.Decimal
	Rush          bool
	State         string
}

// Calculate runs the quote math. It is pure: the same inputs always produce
// the same breakdown, and recomputation never drifts.
func Calculate(in Inputs, defs Defaults) types.BidBreakdown {
	laborCost := in.LaborHours.Mul(in.LaborRate)
	subtotal := in.PartsCost.Add(laborCost)
	profit := subtotal.Mul(in.ProfitPercent).Div(hundred)

	preRush := subtotal.Add(profit).Add(in.TravelFee).Add(in.TransportFee)

	rushFee := decimal.Zero
	if in.Rush {
		rushFee = preRush.Mul(defs.RushPercent).Div(hundred).Round(2)
	}
	preTax := preRush.Add(rushFee)

	taxRate := StateTaxRate(in.State)
	tax := preTax.Mul(taxRate).Div(hundred).Round(2)
	total := preTax.Add(tax)

	platformFee := total.Mul(defs.PlatformFeePercent).Div(hundred).Round(2)
	net := total.Sub(platformFee)

	return types.BidBreakdown{
		PartsCost:          in.PartsCost,
		LaborHours:         in.LaborHours,
		LaborRate:          in.LaborRate,
		LaborCost:          laborCost,
		Subtotal:           subtotal,
		ProfitPercent:      in.ProfitPercent,
		ProfitAmount:       profit,
		TravelFee:          in.TravelFee,
		TransportFee:       in.TransportFee,
		RushFee:            rushFee,
		TaxRatePercent:     taxRate,
		TaxAmount:          tax,
		Total:              total,
		PlatformFeePercent: defs.PlatformFeePercent,
		PlatformFee:        platformFee,
		NetToProvider:      net,
	}
}

// ParseAmount converts free-form user input into a decimal. Unparseable or
// negative input collapses to zero rather than failing the whole quote.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if trimmed == "" {
		return decimal.Zero
	}
	trimmed = strings.ReplaceAll(trimmed, ",", "")
	d, err := decimal.NewFromString(trimmed)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
