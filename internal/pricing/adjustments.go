package pricing

import (
	"fmt"

	"github.com/noah-isme/backend-acara/internal/money"
)

// AdjustmentType distinguishes flat amounts from percentages of subtotal.
type AdjustmentType string

const (
	AdjustmentFlat       AdjustmentType = "flat"
	AdjustmentPercentage AdjustmentType = "percentage"
)

// AdjustmentMode distinguishes surcharges from discounts.
type AdjustmentMode string

const (
	ModeSurcharge AdjustmentMode = "surcharge"
	ModeDiscount  AdjustmentMode = "discount"
)

// CustomAdjustment is an admin-authored order modifier. Percentage values are
// expressed in basis points; flat values in minor units. Admin tooling may
// author flat values in dollars instead via AmountDollars; those are converted
// and validated before the adjustment is applied.
type CustomAdjustment struct {
	ID            string         `json:"id"`
	Label         string         `json:"label"`
	Type          AdjustmentType `json:"type"`
	Mode          AdjustmentMode `json:"mode"`
	Amount        money.Money    `json:"amount,omitempty"`
	AmountDollars float64        `json:"amountDollars,omitempty"`
	PercentBps    int64          `json:"percentBps,omitempty"`
	Taxable       bool           `json:"taxable"`
}

// ResolveAmounts converts dollar-denominated flat adjustments into minor units
// through the guard, rejecting NaN, infinite and out-of-bound values. When
// AmountDollars is set it wins over Amount.
func ResolveAmounts(g money.Guard, adjustments []CustomAdjustment) ([]CustomAdjustment, error) {
	resolved := make([]CustomAdjustment, len(adjustments))
	copy(resolved, adjustments)
	for i := range resolved {
		if resolved[i].Type != AdjustmentFlat || resolved[i].AmountDollars == 0 {
			continue
		}
		m, err := g.FromFloat(resolved[i].AmountDollars)
		if err != nil {
			return nil, fmt.Errorf("adjustment %s: %w", resolved[i].ID, err)
		}
		resolved[i].Amount = m
		resolved[i].AmountDollars = 0
	}
	return resolved, nil
}

// AppliedAdjustment is the computed, signed form of an adjustment as it
// appears on the order. Amount is negative for discounts. Individual
// adjustments are never clamped: the display layer shows true magnitudes and
// any clamping happens once, on the final total.
type AppliedAdjustment struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Type    AdjustmentType `json:"type"`
	Mode    AdjustmentMode `json:"mode"`
	Amount  money.Money    `json:"amount"`
	Taxable bool           `json:"taxable"`
}

// ApplyAdjustments computes every adjustment against the original subtotal,
// never against a running total, so adjustments cannot compound and their
// order affects display only. It returns the applied list, the signed sum,
// and the signed sum of taxable adjustments (the tax base contribution).
func ApplyAdjustments(subtotal money.Money, adjustments []CustomAdjustment) (applied []AppliedAdjustment, total, taxableTotal money.Money) {
	if len(adjustments) == 0 {
		return nil, 0, 0
	}
	applied = make([]AppliedAdjustment, 0, len(adjustments))
	for _, adj := range adjustments {
		var raw money.Money
		if adj.Type == AdjustmentPercentage {
			raw = money.ApplyBps(subtotal, adj.PercentBps)
		} else {
			raw = adj.Amount
		}
		if raw < 0 {
			raw = 0
		}
		signed := raw
		if adj.Mode == ModeDiscount {
			signed = -raw
		}
		applied = append(applied, AppliedAdjustment{
			ID:      adj.ID,
			Label:   adj.Label,
			Type:    adj.Type,
			Mode:    adj.Mode,
			Amount:  signed,
			Taxable: adj.Taxable,
		})
		total += signed
		if adj.Taxable {
			taxableTotal += signed
		}
	}
	return applied, total, taxableTotal
}
