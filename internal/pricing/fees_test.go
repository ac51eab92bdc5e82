package pricing

import (
	"errors"
	"testing"

	"github.com/noah-isme/backend-acara/internal/money"
)

func TestComputeServiceFee(t *testing.T) {
	cfg := FeeConfig{ServiceFeeBps: 500}

	// $500 subtotal at 5% -> $25.00
	if got := ComputeServiceFee(50_000, cfg); got != 2_500 {
		t.Fatalf("fee = %s, want 25.00", got)
	}

	cfg.ServiceFeeWaived = true
	if got := ComputeServiceFee(50_000, cfg); got != 0 {
		t.Fatalf("waived fee = %s, want 0", got)
	}
}

func testBrackets() []DeliveryBracket {
	return []DeliveryBracket{
		{MinMiles: 0, MaxMiles: 5, Label: "0-5 mi", Fee: 2_500},
		{MinMiles: 5, MaxMiles: 10, Label: "5-10 mi", Fee: 4_500},
	}
}

func TestComputeDeliveryFeeBracketMatch(t *testing.T) {
	cfg := FeeConfig{Brackets: testBrackets()}
	miles := 7.0

	d := ComputeDeliveryFee(&miles, 100_000, true, 0, cfg)
	if !d.Eligible {
		t.Fatalf("expected eligible, got reason %q", d.Reason)
	}
	if d.Fee != 4_500 || d.Range != "5-10 mi" {
		t.Fatalf("fee = %s range = %q, want 45.00 in 5-10 mi", d.Fee, d.Range)
	}
}

func TestComputeDeliveryFeeDegradations(t *testing.T) {
	cfg := FeeConfig{Brackets: testBrackets(), DeliveryMinimum: 10_000}
	miles := 3.0

	cases := []struct {
		name     string
		distance *float64
		subtotal money.Money
		offered  bool
		vendor   money.Money
		reason   string
	}{
		{"no delivery offered", &miles, 100_000, false, 0, ReasonNoDelivery},
		{"distance unknown", nil, 100_000, true, 0, ReasonDistanceUnknown},
		{"below platform minimum", &miles, 5_000, true, 0, ReasonBelowMinimum},
		{"below vendor minimum", &miles, 15_000, true, 20_000, ReasonBelowMinimum},
		{"out of range", float64Ptr(25), 100_000, true, 0, ReasonOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ComputeDeliveryFee(tc.distance, tc.subtotal, tc.offered, tc.vendor, cfg)
			if d.Eligible {
				t.Fatal("expected ineligible")
			}
			if d.Fee != 0 {
				t.Fatalf("ineligible delivery must carry zero fee, got %s", d.Fee)
			}
			if d.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", d.Reason, tc.reason)
			}
		})
	}
}

func TestValidateBrackets(t *testing.T) {
	if err := ValidateBrackets(testBrackets()); err != nil {
		t.Fatalf("valid brackets rejected: %v", err)
	}

	overlapping := []DeliveryBracket{
		{MinMiles: 0, MaxMiles: 6, Label: "a", Fee: 100},
		{MinMiles: 5, MaxMiles: 10, Label: "b", Fee: 200},
	}
	if err := ValidateBrackets(overlapping); !errors.Is(err, ErrBadBrackets) {
		t.Fatalf("overlap error = %v, want ErrBadBrackets", err)
	}

	gapped := []DeliveryBracket{
		{MinMiles: 0, MaxMiles: 5, Label: "a", Fee: 100},
		{MinMiles: 6, MaxMiles: 10, Label: "b", Fee: 200},
	}
	if err := ValidateBrackets(gapped); !errors.Is(err, ErrBadBrackets) {
		t.Fatalf("gap error = %v, want ErrBadBrackets", err)
	}

	inverted := []DeliveryBracket{{MinMiles: 5, MaxMiles: 5, Label: "a", Fee: 100}}
	if err := ValidateBrackets(inverted); !errors.Is(err, ErrBadBrackets) {
		t.Fatalf("inverted error = %v, want ErrBadBrackets", err)
	}
}

func float64Ptr(v float64) *float64 { return &v }
