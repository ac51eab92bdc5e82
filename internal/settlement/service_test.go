package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/money"
)

type stubLedger struct {
	orders  map[uuid.UUID]ledger.Order
	payouts []ledger.Payout
	calls   int
}

func (s *stubLedger) GetOrder(_ context.Context, id uuid.UUID) (ledger.Order, error) {
	ord, ok := s.orders[id]
	if !ok {
		return ledger.Order{}, ledger.ErrOrderNotFound
	}
	return ord, nil
}

func (s *stubLedger) ListSettledOrders(_ context.Context, vendorID uuid.UUID, _ ledger.Period) ([]ledger.Order, error) {
	s.calls++
	var orders []ledger.Order
	for _, ord := range s.orders {
		if ord.VendorID == vendorID && ord.Status.Settled() {
			orders = append(orders, ord)
		}
	}
	return orders, nil
}

func (s *stubLedger) SettledVendors(_ context.Context, _ ledger.Period) ([]uuid.UUID, error) {
	s.calls++
	seen := map[uuid.UUID]bool{}
	var vendors []uuid.UUID
	for _, ord := range s.orders {
		if ord.Status.Settled() && !seen[ord.VendorID] {
			seen[ord.VendorID] = true
			vendors = append(vendors, ord.VendorID)
		}
	}
	return vendors, nil
}

func (s *stubLedger) ListOrderPayouts(_ context.Context, vendorID uuid.UUID, orderIDs []uuid.UUID, _ *ledger.PayoutStatus) ([]ledger.Payout, error) {
	s.calls++
	wanted := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		wanted[id.String()] = true
	}
	var payouts []ledger.Payout
	for _, p := range s.payouts {
		if p.VendorID == vendorID && p.SourceType == ledger.PayoutSourceOrder && wanted[p.SourceID] {
			payouts = append(payouts, p)
		}
	}
	return payouts, nil
}

func testService(t *testing.T, l *stubLedger) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{L: l, R: rdb, TTL: time.Minute}
}

func TestAccountsPayableReportUsesCache(t *testing.T) {
	vendorID := uuid.New()
	ord := orderWithShare(vendorID, 100_000)
	l := &stubLedger{orders: map[uuid.UUID]ledger.Order{ord.ID: ord}}
	svc := testService(t, l)
	period := ledger.Period{From: time.Now().AddDate(0, 0, -7), To: time.Now()}

	first, err := svc.AccountsPayableReport(context.Background(), period)
	require.NoError(t, err)
	require.Len(t, first, 1)
	callsAfterFirst := l.calls

	second, err := svc.AccountsPayableReport(context.Background(), period)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, callsAfterFirst, l.calls, "second read must come from cache")
}

func TestRefreshAccountsPayableBustsCache(t *testing.T) {
	vendorID := uuid.New()
	ord := orderWithShare(vendorID, 100_000)
	l := &stubLedger{orders: map[uuid.UUID]ledger.Order{ord.ID: ord}}
	svc := testService(t, l)
	period := ledger.Period{From: time.Now().AddDate(0, 0, -7), To: time.Now()}

	_, err := svc.AccountsPayableReport(context.Background(), period)
	require.NoError(t, err)
	callsAfterFirst := l.calls

	require.NoError(t, svc.RefreshAccountsPayable(context.Background(), period))
	require.Greater(t, l.calls, callsAfterFirst, "refresh must recompute from the ledger")
}

func TestVendorReportCountsPayoutsExecutedOutsideWindow(t *testing.T) {
	vendorID := uuid.New()
	paidAt := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	ord := orderWithShare(vendorID, 100_000)
	ord.PaidAt = &paidAt

	payout := paidPayout(vendorID, ord.ID, 100_000)
	payout.CreatedAt = time.Date(2026, 7, 20, 9, 0, 0, 0, time.UTC)

	l := &stubLedger{
		orders:  map[uuid.UUID]ledger.Order{ord.ID: ord},
		payouts: []ledger.Payout{payout},
	}
	svc := testService(t, l)
	period := ledger.Period{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	report, err := svc.VendorReport(context.Background(), vendorID, period)
	require.NoError(t, err)
	require.Equal(t, money.Money(100_000), report.PaidOut,
		"a transfer executed before the window still pays down its order")
	require.Equal(t, money.Money(0), report.AccountsPayable)
}

func TestBreakdownNotFound(t *testing.T) {
	svc := testService(t, &stubLedger{orders: map[uuid.UUID]ledger.Order{}})

	_, err := svc.Breakdown(context.Background(), uuid.New())
	require.ErrorIs(t, err, ledger.ErrOrderNotFound)
}
