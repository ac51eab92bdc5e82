package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/pricing"
)

// OrderStatus is the order lifecycle state. Pricing is computed exactly once,
// at creation; no transition recomputes it.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
)

// Settled reports whether the order counts toward vendor settlement.
func (s OrderStatus) Settled() bool {
	return s == StatusPaid || s == StatusCompleted
}

// Order is a persisted order with its immutable pricing snapshot. The snapshot
// and the commission terms are captured at creation so later configuration
// changes never alter historical financials.
type Order struct {
	ID                uuid.UUID           `json:"id"`
	VendorID          uuid.UUID           `json:"vendorId"`
	CustomerID        uuid.UUID           `json:"customerId"`
	Status            OrderStatus         `json:"status"`
	CommissionBps     int64               `json:"commissionBps"`
	RetainsServiceFee bool                `json:"retainsServiceFee"`
	Snapshot          pricing.OrderTotals `json:"snapshot"`
	CreatedAt         time.Time           `json:"createdAt"`
	PaidAt            *time.Time          `json:"paidAt,omitempty"`
}

// PayoutStatus is the state of one transfer to a vendor.
type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
	PayoutFailed  PayoutStatus = "failed"
)

// PayoutSourceOrder marks payouts funded against a specific order. Order-level
// liabilities are reconciled only against payouts carrying this source type.
const PayoutSourceOrder = "order"

// Payout is one append-only transfer record. Corrections are new rows, never
// edits; the reconciliation report derives balances from the full history.
type Payout struct {
	ID         uuid.UUID    `json:"id"`
	VendorID   uuid.UUID    `json:"vendorId"`
	AmountNet  money.Money  `json:"amountNet"`
	Status     PayoutStatus `json:"status"`
	SourceType string       `json:"sourceType"`
	SourceID   string       `json:"sourceId"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Period is a half-open settlement window [From, To). It selects which orders
// a report covers; payouts against those orders count whenever they were
// executed.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
