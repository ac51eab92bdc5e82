package settlement

import (
	"github.com/google/uuid"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/money"
)

// FinancialBreakdown re-derives how one settled order's money splits between
// the platform and the vendor. It is computed from the order's immutable
// pricing snapshot and commission terms; calling it never touches the order
// record, so concurrent reporting reads are safe.
type FinancialBreakdown struct {
	OrderID          uuid.UUID   `json:"orderId"`
	VendorID         uuid.UUID   `json:"vendorId"`
	GrossRevenue     money.Money `json:"grossRevenue"`
	CommissionBasis  money.Money `json:"commissionBasis"`
	CommissionBps    int64       `json:"commissionBps"`
	Commission       money.Money `json:"commission"`
	RetainedFees     money.Money `json:"retainedFees"`
	PlatformEarnings money.Money `json:"platformEarnings"`
	VendorShare      money.Money `json:"vendorShare"`
	TaxCollected     money.Money `json:"taxCollected"`
}

// ComputeBreakdown splits an order's total using the commission rate captured
// at order time. Commission applies to the vendor's revenue basis: the
// subtotal plus signed adjustments, plus the service fee only when the vendor
// keeps it. Fees the platform retains are excluded from the basis and counted
// as platform earnings directly. The vendor share is the remainder, so
// grossRevenue always equals platformEarnings plus vendorShare exactly.
func ComputeBreakdown(ord ledger.Order) FinancialBreakdown {
	snap := ord.Snapshot

	basis := snap.Subtotal + snap.AdjustmentTotal
	if basis < 0 {
		basis = 0
	}
	var retained money.Money
	if ord.RetainsServiceFee {
		retained = snap.ServiceFee
	} else {
		basis += snap.ServiceFee
	}

	commission := money.ApplyBps(basis, ord.CommissionBps)
	platform := commission + retained
	gross := snap.Total

	return FinancialBreakdown{
		OrderID:          ord.ID,
		VendorID:         ord.VendorID,
		GrossRevenue:     gross,
		CommissionBasis:  basis,
		CommissionBps:    ord.CommissionBps,
		Commission:       commission,
		RetainedFees:     retained,
		PlatformEarnings: platform,
		VendorShare:      gross - platform,
		TaxCollected:     snap.Tax,
	}
}
