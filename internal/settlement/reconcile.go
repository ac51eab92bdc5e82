package settlement

import (
	"github.com/google/uuid"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/money"
)

// AccountsPayable returns the outstanding liability for one order: the vendor
// share minus payouts already paid against it, floored at zero. Pending and
// failed transfers do not reduce the liability, and neither does a payout's
// execution date; any paid transfer referencing the order counts.
func AccountsPayable(b FinancialBreakdown, payouts []ledger.Payout) money.Money {
	var paid money.Money
	for _, p := range payouts {
		if p.Status != ledger.PayoutPaid {
			continue
		}
		if p.SourceType != ledger.PayoutSourceOrder || p.SourceID != b.OrderID.String() {
			continue
		}
		paid += p.AmountNet
	}
	return money.Max(0, b.VendorShare-paid)
}

// VendorReport aggregates one vendor's settlement position over a period.
type VendorReport struct {
	VendorID         uuid.UUID   `json:"vendorId"`
	Orders           int         `json:"orders"`
	GrossRevenue     money.Money `json:"grossRevenue"`
	PlatformEarnings money.Money `json:"platformEarnings"`
	VendorShare      money.Money `json:"vendorShare"`
	PaidOut          money.Money `json:"paidOut"`
	AccountsPayable  money.Money `json:"accountsPayable"`
}

// BuildVendorReport folds a vendor's settled orders and payout history into a
// report. Per-order liabilities are clamped individually; as long as no order
// is ever overpaid, the total equals total vendor share minus total paid
// payouts. PaidOut counts only paid transfers referencing the report's orders,
// so the report balances against its own order set.
func BuildVendorReport(vendorID uuid.UUID, orders []ledger.Order, payouts []ledger.Payout) VendorReport {
	report := VendorReport{VendorID: vendorID}
	covered := make(map[string]bool, len(orders))
	for _, ord := range orders {
		if !ord.Status.Settled() {
			continue
		}
		report.Orders++
		covered[ord.ID.String()] = true
		b := ComputeBreakdown(ord)
		report.GrossRevenue += b.GrossRevenue
		report.PlatformEarnings += b.PlatformEarnings
		report.VendorShare += b.VendorShare
		report.AccountsPayable += AccountsPayable(b, payouts)
	}
	for _, p := range payouts {
		if p.Status == ledger.PayoutPaid && p.SourceType == ledger.PayoutSourceOrder && covered[p.SourceID] {
			report.PaidOut += p.AmountNet
		}
	}
	return report
}
