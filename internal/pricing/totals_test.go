package pricing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/geo"
	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/pricing"
	"github.com/noah-isme/backend-acara/internal/tax"
)

type fixedTax struct {
	data tax.Data
	err  error
	// lastInput captures the resolver input for base assertions.
	lastInput tax.Input
}

func (f *fixedTax) Resolve(_ context.Context, in tax.Input) (tax.Data, error) {
	f.lastInput = in
	if f.err != nil {
		return f.data, f.err
	}
	if f.data.Amount == 0 && !f.data.Unavailable && f.data.Rate > 0 {
		d := f.data
		d.Amount = money.ApplyBps(in.Base(), int64(f.data.Rate*10_000))
		return d, nil
	}
	return f.data, nil
}

func testCart() catalog.Cart {
	origin := catalog.Address{Line1: "1 Vendor Way", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
	event := catalog.Address{Line1: "9 Party Pl", City: "Austin", State: "TX", PostalCode: "78704", Country: "US"}
	return catalog.Cart{
		Services: []catalog.SelectedService{{
			ID:            uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			VendorID:      uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Name:          "Taco bar",
			Kind:          catalog.KindCatering,
			UnitPrice:     10_000, // $100
			Quantity:      5,
			DurationHours: 1,
			Origin:        &origin,
			Details: catalog.ServiceDetails{
				Kind: catalog.KindCatering,
				Catering: &catalog.CateringDetails{
					Delivery: catalog.DeliveryOptions{Offered: true},
				},
			},
		}},
		EventAddress: &event,
	}
}

func testCalculator(t *testing.T, taxResolver pricing.TaxResolver, distancer pricing.Distancer) *pricing.Calculator {
	t.Helper()
	return &pricing.Calculator{
		Geo: distancer,
		Tax: taxResolver,
		Fees: pricing.FeeConfig{
			ServiceFeeBps: 500,
			Brackets: []pricing.DeliveryBracket{
				{MinMiles: 0, MaxMiles: 5, Label: "0-5 mi", Fee: 2_500},
				{MinMiles: 5, MaxMiles: 10, Label: "5-10 mi", Fee: 4_500},
			},
		},
	}
}

func TestQuoteComposesComponents(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{data: tax.Data{Rate: 0.08, Jurisdiction: "Austin, TX", Source: tax.SourceLocalFallback}}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Miles: 7})

	totals, err := calc.Quote(context.Background(), testCart(), []pricing.CustomAdjustment{
		{ID: "tip", Label: "Staff gratuity", Type: pricing.AdjustmentPercentage, Mode: pricing.ModeSurcharge, PercentBps: 1_000, Taxable: false},
	})
	require.NoError(t, err)

	require.Equal(t, money.Money(50_000), totals.Subtotal)   // $500
	require.Equal(t, money.Money(2_500), totals.ServiceFee)  // 5%
	require.Equal(t, money.Money(4_500), totals.DeliveryFee) // 5-10 mi bracket
	require.True(t, totals.Delivery.Eligible)
	require.Equal(t, "5-10 mi", totals.Delivery.Range)
	require.Equal(t, money.Money(5_000), totals.AdjustmentTotal)

	// Tax base is post-fee, pre-adjustment (gratuity is not taxable).
	require.Equal(t, money.Money(57_000), resolver.lastInput.Base())
	require.Equal(t, money.Money(4_560), totals.Tax)

	sum := totals.Subtotal + totals.ServiceFee + totals.DeliveryFee + totals.Tax + totals.AdjustmentTotal
	require.Equal(t, sum, totals.Total)
	require.GreaterOrEqual(t, totals.Total, money.Money(0))
}

func TestQuoteIsIdempotent(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{data: tax.Data{Rate: 0.0825, Source: tax.SourceRemote}}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Miles: 3})
	adjs := []pricing.CustomAdjustment{
		{ID: "d", Type: pricing.AdjustmentPercentage, Mode: pricing.ModeDiscount, PercentBps: 750, Taxable: true},
	}

	first, err := calc.Quote(context.Background(), testCart(), adjs)
	require.NoError(t, err)
	second, err := calc.Quote(context.Background(), testCart(), adjs)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestQuoteDegradesWhenDistanceUnavailable(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{data: tax.Data{Source: tax.SourceRemote, Amount: 1_000}}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Err: geo.ErrDistanceUnavailable})

	totals, err := calc.Quote(context.Background(), testCart(), nil)
	require.NoError(t, err, "a geocoding outage must not fail the quote")
	require.False(t, totals.Delivery.Eligible)
	require.Equal(t, pricing.ReasonDistanceUnknown, totals.Delivery.Reason)
	require.Equal(t, money.Money(0), totals.DeliveryFee)
}

func TestQuoteDegradesWhenTaxUnavailable(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{
		data: tax.Data{Unavailable: true, Source: tax.SourceLocalFallback},
		err:  tax.ErrTaxUnavailable,
	}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Miles: 2})

	totals, err := calc.Quote(context.Background(), testCart(), nil)
	require.NoError(t, err, "tax outage is degraded mode, not a failure")
	require.Equal(t, money.Money(0), totals.Tax)
	require.True(t, totals.TaxData.Unavailable)
}

func TestQuoteClampsTotalAtZeroOnly(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{data: tax.Data{Source: tax.SourceRemote}}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Miles: 2})

	totals, err := calc.Quote(context.Background(), testCart(), []pricing.CustomAdjustment{
		{ID: "comp", Label: "Full comp", Type: pricing.AdjustmentFlat, Mode: pricing.ModeDiscount, Amount: 200_000},
	})
	require.NoError(t, err)
	require.Equal(t, money.Money(0), totals.Total)
	// The display magnitude stays true even though the total clamped.
	require.Equal(t, money.Money(-200_000), totals.Adjustments[0].Amount)
}

func TestQuoteRejectsMalformedAmounts(t *testing.T) {
	t.Parallel()

	resolver := &fixedTax{data: tax.Data{Source: tax.SourceRemote}}
	calc := testCalculator(t, resolver, geo.StaticDistancer{Miles: 2})

	cart := testCart()
	cart.Services[0].UnitPrice = -1

	_, err := calc.Quote(context.Background(), cart, nil)
	require.ErrorIs(t, err, money.ErrInvalidAmount)
}
