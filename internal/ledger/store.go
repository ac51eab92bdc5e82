package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-acara/internal/pricing"
)

var (
	// ErrOrderNotFound is returned when no order exists for the id.
	ErrOrderNotFound = errors.New("ledger: order not found")
	// ErrOrderExists guards the insert-once pricing snapshot. A second insert
	// for the same order id is a caller bug, never a silent overwrite.
	ErrOrderExists = errors.New("ledger: order already exists")
)

// Store persists orders and payouts in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// CreateOrder inserts an order with its pricing snapshot inside the given
// transaction. The snapshot column is written here and nowhere else.
func (s *Store) CreateOrder(ctx context.Context, tx pgx.Tx, ord *Order) error {
	snapshot, err := json.Marshal(ord.Snapshot)
	if err != nil {
		return fmt.Errorf("ledger: encode snapshot: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO orders (id, vendor_id, customer_id, status, commission_bps,
		                    retains_service_fee, pricing_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO NOTHING`,
		ord.ID, ord.VendorID, ord.CustomerID, ord.Status, ord.CommissionBps,
		ord.RetainsServiceFee, snapshot)
	if err != nil {
		return fmt.Errorf("ledger: create order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderExists
	}
	return nil
}

// GetOrder loads an order with its snapshot.
func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, vendor_id, customer_id, status, commission_bps,
		       retains_service_fee, pricing_snapshot, created_at, paid_at
		FROM orders
		WHERE id = $1`, id)
	return scanOrder(row)
}

// MarkOrderPaid transitions the order to paid and stamps the settlement
// timestamp. The pricing snapshot is untouched.
func (s *Store) MarkOrderPaid(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET status = $2, paid_at = now()
		WHERE id = $1 AND status = $3`, id, StatusPaid, StatusPending)
	if err != nil {
		return fmt.Errorf("ledger: mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListSettledOrders returns a vendor's settled orders whose payment landed in
// the period.
func (s *Store) ListSettledOrders(ctx context.Context, vendorID uuid.UUID, period Period) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, vendor_id, customer_id, status, commission_bps,
		       retains_service_fee, pricing_snapshot, created_at, paid_at
		FROM orders
		WHERE vendor_id = $1
		  AND status IN ($2, $3)
		  AND paid_at >= $4 AND paid_at < $5
		ORDER BY paid_at`, vendorID, StatusPaid, StatusCompleted, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("ledger: list settled orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ord)
	}
	return orders, rows.Err()
}

// SettledVendors returns the vendors with at least one settled order in the
// period, for period-report fan-out.
func (s *Store) SettledVendors(ctx context.Context, period Period) ([]uuid.UUID, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT DISTINCT vendor_id
		FROM orders
		WHERE status IN ($1, $2)
		  AND paid_at >= $3 AND paid_at < $4`,
		StatusPaid, StatusCompleted, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("ledger: settled vendors: %w", err)
	}
	defer rows.Close()

	var vendors []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		vendors = append(vendors, id)
	}
	return vendors, rows.Err()
}

// CreatePayout appends a payout record.
func (s *Store) CreatePayout(ctx context.Context, p *Payout) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payouts (id, vendor_id, amount_net_cents, status, source_type, source_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		p.ID, p.VendorID, p.AmountNet, p.Status, p.SourceType, p.SourceID)
	if err != nil {
		return fmt.Errorf("ledger: create payout: %w", err)
	}
	return nil
}

// ListOrderPayouts returns a vendor's payouts funded against the given orders,
// optionally narrowed by status. There is no time bound: a payout settles its
// order's liability no matter when the transfer was executed.
func (s *Store) ListOrderPayouts(ctx context.Context, vendorID uuid.UUID, orderIDs []uuid.UUID, status *PayoutStatus) ([]Payout, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	sourceIDs := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		sourceIDs = append(sourceIDs, id.String())
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, vendor_id, amount_net_cents, status, source_type, source_id, created_at
		FROM payouts
		WHERE vendor_id = $1
		  AND source_type = $2
		  AND source_id = ANY($3)
		  AND ($4::text IS NULL OR status = $4)
		ORDER BY created_at`, vendorID, PayoutSourceOrder, sourceIDs, status)
	if err != nil {
		return nil, fmt.Errorf("ledger: list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []Payout
	for rows.Next() {
		var p Payout
		if err := rows.Scan(&p.ID, &p.VendorID, &p.AmountNet, &p.Status, &p.SourceType, &p.SourceID, &p.CreatedAt); err != nil {
			return nil, err
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		ord      Order
		snapshot []byte
		paidAt   pgtype.Timestamptz
	)
	err := row.Scan(&ord.ID, &ord.VendorID, &ord.CustomerID, &ord.Status, &ord.CommissionBps,
		&ord.RetainsServiceFee, &snapshot, &ord.CreatedAt, &paidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("ledger: scan order: %w", err)
	}
	var totals pricing.OrderTotals
	if err := json.Unmarshal(snapshot, &totals); err != nil {
		return Order{}, fmt.Errorf("ledger: decode snapshot: %w", err)
	}
	ord.Snapshot = totals
	if paidAt.Valid {
		t := paidAt.Time
		ord.PaidAt = &t
	}
	return ord, nil
}
