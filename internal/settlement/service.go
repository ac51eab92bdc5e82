package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/obs"
)

// Ledger defines the order and payout reads settlement reporting needs.
// Implemented by ledger.Store.
type Ledger interface {
	GetOrder(ctx context.Context, id uuid.UUID) (ledger.Order, error)
	ListSettledOrders(ctx context.Context, vendorID uuid.UUID, period ledger.Period) ([]ledger.Order, error)
	SettledVendors(ctx context.Context, period ledger.Period) ([]uuid.UUID, error)
	ListOrderPayouts(ctx context.Context, vendorID uuid.UUID, orderIDs []uuid.UUID, status *ledger.PayoutStatus) ([]ledger.Payout, error)
}

// Service provides read-only settlement reporting over persisted orders, with
// Redis-cached period reports. It never writes to the ledger; payout creation
// is a separate explicit operation.
type Service struct {
	L   Ledger
	R   *redis.Client
	TTL time.Duration
	Now func() time.Time
}

// Breakdown re-derives the financial breakdown for one order from its
// snapshot.
func (s *Service) Breakdown(ctx context.Context, orderID uuid.UUID) (FinancialBreakdown, error) {
	if s == nil {
		return FinancialBreakdown{}, fmt.Errorf("settlement service not configured")
	}
	ord, err := s.L.GetOrder(ctx, orderID)
	if err != nil {
		return FinancialBreakdown{}, err
	}
	return ComputeBreakdown(ord), nil
}

// AccountsPayableReport computes per-vendor settlement positions for the
// period. Results are cached; the report is a pure fold over immutable order
// snapshots and the append-only payout history, so a short TTL is safe.
func (s *Service) AccountsPayableReport(ctx context.Context, period ledger.Period) ([]VendorReport, error) {
	if s == nil {
		return nil, fmt.Errorf("settlement service not configured")
	}
	key := cacheKey("st", "ap", period.From.Format("2006-01-02"), period.To.Format("2006-01-02"))
	if reports, ok := s.fromCache(ctx, key); ok {
		return reports, nil
	}

	vendors, err := s.L.SettledVendors(ctx, period)
	if err != nil {
		s.countRun("error")
		return nil, err
	}
	reports := make([]VendorReport, 0, len(vendors))
	for _, vendorID := range vendors {
		report, err := s.vendorReport(ctx, vendorID, period)
		if err != nil {
			s.countRun("error")
			return nil, err
		}
		reports = append(reports, report)
	}

	s.store(ctx, key, reports)
	s.countRun("ok")
	return reports, nil
}

// RefreshAccountsPayable recomputes the period report, replacing any cached
// copy. Used by the scheduled worker so dashboards read warm data.
func (s *Service) RefreshAccountsPayable(ctx context.Context, period ledger.Period) error {
	key := cacheKey("st", "ap", period.From.Format("2006-01-02"), period.To.Format("2006-01-02"))
	if s.R != nil {
		_ = s.R.Del(ctx, key).Err()
	}
	_, err := s.AccountsPayableReport(ctx, period)
	return err
}

// VendorReport computes one vendor's settlement position for the period.
func (s *Service) VendorReport(ctx context.Context, vendorID uuid.UUID, period ledger.Period) (VendorReport, error) {
	if s == nil {
		return VendorReport{}, fmt.Errorf("settlement service not configured")
	}
	return s.vendorReport(ctx, vendorID, period)
}

// vendorReport selects the vendor's orders by period, then fetches the payouts
// keyed to those orders without a time bound. A transfer executed before or
// after the window still pays down the order it references.
func (s *Service) vendorReport(ctx context.Context, vendorID uuid.UUID, period ledger.Period) (VendorReport, error) {
	orders, err := s.L.ListSettledOrders(ctx, vendorID, period)
	if err != nil {
		return VendorReport{}, err
	}
	orderIDs := make([]uuid.UUID, 0, len(orders))
	for _, ord := range orders {
		orderIDs = append(orderIDs, ord.ID)
	}
	payouts, err := s.L.ListOrderPayouts(ctx, vendorID, orderIDs, nil)
	if err != nil {
		return VendorReport{}, err
	}
	return BuildVendorReport(vendorID, orders, payouts), nil
}

func (s *Service) fromCache(ctx context.Context, key string) ([]VendorReport, bool) {
	if s.R == nil || s.TTL <= 0 {
		return nil, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var reports []VendorReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, false
	}
	return reports, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func (s *Service) countRun(result string) {
	if obs.ReconciliationRunsTotal != nil {
		obs.ReconciliationRunsTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}
