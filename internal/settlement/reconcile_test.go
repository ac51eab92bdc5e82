package settlement

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/pricing"
)

func orderWithShare(vendorID uuid.UUID, share money.Money) ledger.Order {
	// Zero commission and no retained fees make vendorShare == total.
	return ledger.Order{
		ID:       uuid.New(),
		VendorID: vendorID,
		Status:   ledger.StatusPaid,
		Snapshot: pricing.OrderTotals{Subtotal: share, Total: share},
	}
}

func paidPayout(vendorID, orderID uuid.UUID, amount money.Money) ledger.Payout {
	return ledger.Payout{
		ID:         uuid.New(),
		VendorID:   vendorID,
		AmountNet:  amount,
		Status:     ledger.PayoutPaid,
		SourceType: ledger.PayoutSourceOrder,
		SourceID:   orderID.String(),
	}
}

func TestAccountsPayableFullyPaidVendor(t *testing.T) {
	vendorID := uuid.New()
	ord1 := orderWithShare(vendorID, 120_000)
	ord2 := orderWithShare(vendorID, 60_000)
	payouts := []ledger.Payout{
		paidPayout(vendorID, ord1.ID, 120_000),
		paidPayout(vendorID, ord2.ID, 60_000),
	}

	report := BuildVendorReport(vendorID, []ledger.Order{ord1, ord2}, payouts)
	require.Equal(t, money.Money(180_000), report.VendorShare)
	require.Equal(t, money.Money(180_000), report.PaidOut)
	require.Equal(t, money.Money(0), report.AccountsPayable)
}

func TestAccountsPayableIgnoresNonPaidPayouts(t *testing.T) {
	vendorID := uuid.New()
	ord := orderWithShare(vendorID, 100_000)
	pending := paidPayout(vendorID, ord.ID, 100_000)
	pending.Status = ledger.PayoutPending
	failed := paidPayout(vendorID, ord.ID, 100_000)
	failed.Status = ledger.PayoutFailed

	b := ComputeBreakdown(ord)
	ap := AccountsPayable(b, []ledger.Payout{pending, failed})
	require.Equal(t, money.Money(100_000), ap, "pending and failed transfers are not liabilities paid down")
}

func TestAccountsPayableIgnoresOtherOrders(t *testing.T) {
	vendorID := uuid.New()
	ord := orderWithShare(vendorID, 100_000)
	other := paidPayout(vendorID, uuid.New(), 100_000)

	ap := AccountsPayable(ComputeBreakdown(ord), []ledger.Payout{other})
	require.Equal(t, money.Money(100_000), ap)
}

func TestAccountsPayableClampsAtZero(t *testing.T) {
	vendorID := uuid.New()
	ord := orderWithShare(vendorID, 50_000)
	over := paidPayout(vendorID, ord.ID, 75_000)

	ap := AccountsPayable(ComputeBreakdown(ord), []ledger.Payout{over})
	require.Equal(t, money.Money(0), ap, "overpayment never yields a negative liability")
}

func TestVendorReportSkipsUnsettledOrders(t *testing.T) {
	vendorID := uuid.New()
	settled := orderWithShare(vendorID, 100_000)
	cancelled := orderWithShare(vendorID, 40_000)
	cancelled.Status = ledger.StatusCancelled

	report := BuildVendorReport(vendorID, []ledger.Order{settled, cancelled}, nil)
	require.Equal(t, 1, report.Orders)
	require.Equal(t, money.Money(100_000), report.VendorShare,
		"a cancelled order carries no liability")
}

func TestVendorReportMatchesHistoricalDifference(t *testing.T) {
	// As long as no order is overpaid, the summed per-order liability equals
	// total vendor share minus total paid payouts.
	vendorID := uuid.New()
	shares := []money.Money{90_000, 45_500, 12_345}
	paid := []money.Money{90_000, 20_000, 0}

	var orders []ledger.Order
	var payouts []ledger.Payout
	var wantShare, wantPaid money.Money
	for i, share := range shares {
		ord := orderWithShare(vendorID, share)
		orders = append(orders, ord)
		wantShare += share
		if paid[i] > 0 {
			payouts = append(payouts, paidPayout(vendorID, ord.ID, paid[i]))
			wantPaid += paid[i]
		}
	}

	report := BuildVendorReport(vendorID, orders, payouts)
	require.Equal(t, wantShare-wantPaid, report.AccountsPayable)
	require.Equal(t, wantShare, report.VendorShare)
	require.Equal(t, wantPaid, report.PaidOut)
	require.Equal(t, 3, report.Orders)
}
