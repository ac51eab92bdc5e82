package tax

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/money"
)

// ErrTaxUnavailable is returned when neither an address nor a fallback
// jurisdiction can be resolved. It is a degraded-mode signal: checkout
// proceeds with zero tax and a visible flag, never a hard failure.
var ErrTaxUnavailable = errors.New("tax: unavailable")

// Method selects the tax computation strategy.
type Method string

const (
	// MethodRemote prefers the hosted tax service with a local fallback.
	MethodRemote Method = "stripe_automatic"
	// MethodManual computes from the local jurisdiction table only.
	MethodManual Method = "manual"
)

// Source records the provenance of a tax amount.
type Source string

const (
	SourceRemote        Source = "remote"
	SourceLocalFallback Source = "local_fallback"
)

// LineItem is one taxable line sent to the remote estimator.
type LineItem struct {
	Ref         string      `json:"ref"`
	Description string      `json:"description"`
	Amount      money.Money `json:"amount"`
}

// Input carries everything the resolver needs. PreTaxTotal is
// subtotal + serviceFee + deliveryFee; adjustments marked taxable are added on
// top, non-taxable ones are excluded from the base entirely.
type Input struct {
	LineItems          []LineItem
	Address            *catalog.Address
	AddressSource      string // "event" or "billing"
	PreTaxTotal        money.Money
	TaxableAdjustments money.Money
}

// Base returns the amount tax applies to.
func (in Input) Base() money.Money {
	base := in.PreTaxTotal + in.TaxableAdjustments
	if base < 0 {
		return 0
	}
	return base
}

// Data is the resolved tax result attached to an OrderTotals.
type Data struct {
	Rate         float64     `json:"rate"`
	Jurisdiction string      `json:"jurisdiction"`
	Amount       money.Money `json:"amount"`
	Source       Source      `json:"source"`
	// Unavailable flags that no jurisdiction could be resolved and tax was
	// recorded as zero. The UI surfaces this as an "unable to calculate tax"
	// banner rather than hiding it.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Estimate is the remote tax service response.
type Estimate struct {
	Amount        money.Money       `json:"amount"`
	Breakdown     []JurisdictionTax `json:"breakdown,omitempty"`
	CalculationID string            `json:"calculationId"`
}

// JurisdictionTax is one jurisdiction's share of a remote estimate.
type JurisdictionTax struct {
	Jurisdiction string      `json:"jurisdiction"`
	Rate         float64     `json:"rate"`
	Amount       money.Money `json:"amount"`
}

// Client estimates tax remotely. Calls are read-only and abandonable.
type Client interface {
	EstimateTax(ctx context.Context, in Input) (Estimate, error)
}
