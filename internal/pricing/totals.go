package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/obs"
	"github.com/noah-isme/backend-acara/internal/tax"
)

// TaxResolver resolves tax for a quote. Implemented by tax.Resolver.
type TaxResolver interface {
	Resolve(ctx context.Context, in tax.Input) (tax.Data, error)
}

// Distancer resolves miles between two addresses. Implemented by the geo
// package clients.
type Distancer interface {
	Distance(ctx context.Context, origin, destination catalog.Address) (float64, error)
}

// OrderTotals is the immutable priced result of a quote. It is persisted
// verbatim as the order's pricing snapshot at creation time and never
// recomputed for that order afterwards.
type OrderTotals struct {
	Subtotal        money.Money         `json:"subtotal"`
	ServiceFee      money.Money         `json:"serviceFee"`
	DeliveryFee     money.Money         `json:"deliveryFee"`
	Tax             money.Money         `json:"tax"`
	Adjustments     []AppliedAdjustment `json:"adjustments,omitempty"`
	AdjustmentTotal money.Money         `json:"adjustmentTotal"`
	Total           money.Money         `json:"total"`
	Delivery        DeliveryDetails     `json:"deliveryDetails"`
	TaxData         tax.Data            `json:"taxData"`
}

// Calculator composes fee rules, the tax resolver and the adjustment engine
// over a cart. Each invocation operates on its own input snapshot; identical
// inputs (including the external-service responses) produce identical output.
type Calculator struct {
	Geo    Distancer
	Tax    TaxResolver
	Fees   FeeConfig
	Guard  money.Guard
	Logger zerolog.Logger
}

// Quote computes OrderTotals for a cart in fixed order: subtotal, service fee,
// delivery fee, adjustments, tax, total. External-service failures degrade the
// corresponding component; only malformed amounts abort the calculation.
func (c *Calculator) Quote(ctx context.Context, cart catalog.Cart, adjustments []CustomAdjustment) (OrderTotals, error) {
	subtotal, err := c.subtotal(cart)
	if err != nil {
		c.countQuote("invalid_amount")
		return OrderTotals{}, err
	}

	adjustments, err = ResolveAmounts(c.Guard, adjustments)
	if err != nil {
		c.countQuote("invalid_amount")
		return OrderTotals{}, err
	}

	serviceFee := ComputeServiceFee(subtotal, c.Fees)
	delivery := c.deliveryDetails(ctx, cart, subtotal)
	applied, adjTotal, taxableAdjTotal := ApplyAdjustments(subtotal, adjustments)

	taxData := c.resolveTax(ctx, cart, subtotal, serviceFee, delivery.Fee, taxableAdjTotal)

	total := money.Max(0, subtotal+serviceFee+delivery.Fee+taxData.Amount+adjTotal)

	c.countQuote("ok")
	return OrderTotals{
		Subtotal:        subtotal,
		ServiceFee:      serviceFee,
		DeliveryFee:     delivery.Fee,
		Tax:             taxData.Amount,
		Adjustments:     applied,
		AdjustmentTotal: adjTotal,
		Total:           total,
		Delivery:        delivery,
		TaxData:         taxData,
	}, nil
}

// subtotal sums service lines (unit price x quantity x duration) and selected
// sub-items at their captured unit prices. Malformed quantities or prices are
// fatal to this calculation; silently coercing them to zero would corrupt the
// order.
func (c *Calculator) subtotal(cart catalog.Cart) (money.Money, error) {
	var subtotal money.Money
	for _, svc := range cart.Services {
		if svc.Quantity < 0 {
			return 0, fmt.Errorf("%w: service %s quantity %d", money.ErrInvalidAmount, svc.ID, svc.Quantity)
		}
		unit, err := c.Guard.NonNegative(svc.UnitPrice)
		if err != nil {
			return 0, fmt.Errorf("service %s: %w", svc.ID, err)
		}
		duration := svc.DurationHours
		if duration <= 0 {
			duration = 1
		}
		subtotal += money.Mul(unit, int64(svc.Quantity)*int64(duration))
	}
	for key, qty := range cart.Items {
		if qty < 0 {
			return 0, fmt.Errorf("%w: item %s quantity %d", money.ErrInvalidAmount, key, qty)
		}
		if qty == 0 {
			continue
		}
		unit, ok := cart.SubItemPrice(key)
		if !ok {
			return 0, fmt.Errorf("%w: item %s has no price in cart", money.ErrInvalidAmount, key)
		}
		if _, err := c.Guard.NonNegative(unit); err != nil {
			return 0, fmt.Errorf("item %s: %w", key, err)
		}
		subtotal += money.Mul(unit, int64(qty))
	}
	if _, err := c.Guard.NonNegative(subtotal); err != nil {
		return 0, fmt.Errorf("subtotal: %w", err)
	}
	return subtotal, nil
}

// deliveryDetails resolves the distance and evaluates the fee rules. A
// geocoding failure degrades to "distance unknown"; it never aborts the quote.
func (c *Calculator) deliveryDetails(ctx context.Context, cart catalog.Cart, subtotal money.Money) DeliveryDetails {
	offered, vendorMinimum := cart.OffersDelivery()
	if !offered {
		return c.recordDelivery(ComputeDeliveryFee(nil, subtotal, false, 0, c.Fees))
	}
	var distance *float64
	origin := cart.DeliveryOrigin()
	destination := cart.EventAddress
	if c.Geo != nil && origin != nil && destination != nil {
		miles, err := c.Geo.Distance(ctx, *origin, *destination)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("distance lookup failed, delivery degraded to ineligible")
		} else {
			distance = &miles
		}
	}
	return c.recordDelivery(ComputeDeliveryFee(distance, subtotal, true, vendorMinimum, c.Fees))
}

func (c *Calculator) recordDelivery(d DeliveryDetails) DeliveryDetails {
	if !d.Eligible && obs.DeliveryIneligibleTotal != nil {
		obs.DeliveryIneligibleTotal.WithLabelValues(d.Reason).Inc()
	}
	return d
}

// resolveTax computes tax on the post-fee, pre-adjustment base plus taxable
// adjustments. An unresolvable jurisdiction yields zero tax with the
// Unavailable flag set; checkout still completes.
func (c *Calculator) resolveTax(ctx context.Context, cart catalog.Cart, subtotal, serviceFee, deliveryFee, taxableAdjTotal money.Money) tax.Data {
	if c.Tax == nil {
		return tax.Data{Unavailable: true, Source: tax.SourceLocalFallback}
	}
	in := tax.Input{
		LineItems:          taxLineItems(cart, serviceFee, deliveryFee),
		Address:            cart.TaxAddress(),
		AddressSource:      addressSource(cart),
		PreTaxTotal:        subtotal + serviceFee + deliveryFee,
		TaxableAdjustments: taxableAdjTotal,
	}
	data, err := c.Tax.Resolve(ctx, in)
	if err != nil {
		if errors.Is(err, tax.ErrTaxUnavailable) {
			c.Logger.Warn().Err(err).Msg("tax unavailable, quoting with zero tax")
			if obs.TaxUnavailableTotal != nil {
				obs.TaxUnavailableTotal.Inc()
			}
			return data
		}
		c.Logger.Error().Err(err).Msg("tax resolution failed, quoting with zero tax")
		return tax.Data{Unavailable: true, Source: tax.SourceLocalFallback}
	}
	return data
}

func taxLineItems(cart catalog.Cart, serviceFee, deliveryFee money.Money) []tax.LineItem {
	items := make([]tax.LineItem, 0, len(cart.Services)+2)
	for _, svc := range cart.Services {
		duration := svc.DurationHours
		if duration <= 0 {
			duration = 1
		}
		items = append(items, tax.LineItem{
			Ref:         svc.ID.String(),
			Description: svc.Name,
			Amount:      money.Mul(svc.UnitPrice, int64(svc.Quantity)*int64(duration)),
		})
	}
	if serviceFee > 0 {
		items = append(items, tax.LineItem{Ref: "service_fee", Description: "Platform service fee", Amount: serviceFee})
	}
	if deliveryFee > 0 {
		items = append(items, tax.LineItem{Ref: "delivery_fee", Description: "Delivery fee", Amount: deliveryFee})
	}
	return items
}

func addressSource(cart catalog.Cart) string {
	if cart.EventAddress != nil && !cart.EventAddress.IsZero() {
		return "event"
	}
	return "billing"
}

func (c *Calculator) countQuote(result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
}
