package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: got %s want %s", name, got, want)
	}
}

func TestCalculateStandardQuote(t *testing.T) {
	// Florida is one of the 6.00% states.
	breakdown := Calculate(Inputs{
		PartsCost:     dec("100"),
		LaborHours:    dec("2"),
		LaborRate:     dec("75"),
		ProfitPercent: dec("20"),
		State:         "FL",
	}, StandardDefaults())

	assertDecimal(t, "labor", breakdown.LaborCost, "150")
	assertDecimal(t, "subtotal", breakdown.Subtotal, "250")
	assertDecimal(t, "profit", breakdown.ProfitAmount, "50")
	assertDecimal(t, "tax", breakdown.TaxAmount, "18")
	assertDecimal(t, "total", breakdown.Total, "318")
	assertDecimal(t, "platform fee", breakdown.PlatformFee, "31.80")
	assertDecimal(t, "net", breakdown.NetToProvider, "286.20")
}

func TestCalculateRushSurcharge(t *testing.T) {
	breakdown := Calculate(Inputs{
		PartsCost:     dec("100"),
		LaborHours:    dec("2"),
		LaborRate:     dec("75"),
		ProfitPercent: dec("20"),
		Rush:          true,
	}, StandardDefaults())

	// preRush 300, rush 25% adds 75, no tax without a state.
	assertDecimal(t, "rush fee", breakdown.RushFee, "75")
	assertDecimal(t, "total", breakdown.Total, "375")
}

func TestCalculateTravelAndTransportFees(t *testing.T) {
	breakdown := Calculate(Inputs{
		PartsCost:    dec("50"),
		TravelFee:    dec("20"),
		TransportFee: dec("30"),
	}, StandardDefaults())

	assertDecimal(t, "total", breakdown.Total, "100")
	assertDecimal(t, "platform fee", breakdown.PlatformFee, "10")
	assertDecimal(t, "net", breakdown.NetToProvider, "90")
}

func TestCalculateIsIdempotent(t *testing.T) {
	in := Inputs{
		PartsCost:     dec("412.37"),
		LaborHours:    dec("3.5"),
		LaborRate:     dec("95"),
		ProfitPercent: dec("15"),
		TravelFee:     dec("25"),
		Rush:          true,
		State:         "TX",
	}
	first := Calculate(in, StandardDefaults())
	second := Calculate(in, StandardDefaults())
	if !first.Total.Equal(second.Total) || !first.NetToProvider.Equal(second.NetToProvider) {
		t.Fatalf("recomputation drifted: %s vs %s", first.Total, second.Total)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"100", "100"},
		{" $1,250.50 ", "1250.50"},
		{"", "0"},
		{"abc", "0"},
		{"-5", "0"},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.raw); !got.Equal(dec(tc.want)) {
			t.Fatalf("ParseAmount(%q): got %s want %s", tc.raw, got, tc.want)
		}
	}
}

func TestStateTaxRate(t *testing.T) {
	if got := StateTaxRate("fl"); !got.Equal(dec("6.00")) {
		t.Fatalf("FL rate: got %s", got)
	}
	if got := StateTaxRate("OR"); !got.IsZero() {
		t.Fatalf("OR rate should be zero, got %s", got)
	}
	if got := StateTaxRate("ZZ"); !got.IsZero() {
		t.Fatalf("unknown state should be zero, got %s", got)
	}
}

func TestEstimateZipDistance(t *testing.T) {
	if got := EstimateZipDistance("33101", "33101"); got != 0 {
		t.Fatalf("identical zips: got %d", got)
	}
	if got, rev := EstimateZipDistance("33101", "90210"), EstimateZipDistance("90210", "33101"); got != rev {
		t.Fatalf("asymmetric estimate: %d vs %d", got, rev)
	}
	near := EstimateZipDistance("33101", "33109")
	far := EstimateZipDistance("33101", "90210")
	if near >= far {
		t.Fatalf("expected nearby zips closer: near=%d far=%d", near, far)
	}
	if got := EstimateZipDistance("33101", "bad"); got != prefixDistanceMiles[0] {
		t.Fatalf("invalid zip: got %d", got)
	}
	if got := EstimateZipDistance("33101-1234", "33101"); got != 0 {
		t.Fatalf("zip+4 should normalize: got %d", got)
	}
}
