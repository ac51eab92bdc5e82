package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/obs"
	"github.com/noah-isme/backend-acara/internal/pricing"
)

// ErrMixedVendors is returned when a cart's services belong to more than one
// vendor. An order carries a single vendor's commission terms and settles to a
// single vendor share; multi-vendor events are separate orders.
var ErrMixedVendors = errors.New("checkout: cart spans multiple vendors")

// Catalog resolves service records at cart-entry time. Implemented by
// catalog.Store.
type Catalog interface {
	GetService(ctx context.Context, id uuid.UUID) (catalog.SelectedService, error)
}

// ServiceSelection is one chosen vendor service in a quote request.
type ServiceSelection struct {
	ServiceID     uuid.UUID `json:"serviceId" validate:"required"`
	Quantity      int       `json:"quantity" validate:"gte=0"`
	DurationHours int       `json:"durationHours" validate:"gte=0"`
}

// ItemSelection is one chosen sub-item (menu item, combo choice or option).
type ItemSelection struct {
	MenuItemID    string `json:"menuItemId" validate:"required"`
	ComboCategory string `json:"comboCategory,omitempty"`
	SubOptionID   string `json:"subOptionId,omitempty"`
	Quantity      int    `json:"quantity" validate:"gte=0"`
}

// QuoteRequest is the payload for both quoting and checkout.
type QuoteRequest struct {
	Services       []ServiceSelection         `json:"services" validate:"required,min=1,dive"`
	Items          []ItemSelection            `json:"items" validate:"dive"`
	EventAddress   *catalog.Address           `json:"eventAddress"`
	BillingAddress *catalog.Address           `json:"billingAddress"`
	Adjustments    []pricing.CustomAdjustment `json:"adjustments" validate:"dive"`
}

// CheckoutRequest creates an order from a quote.
type CheckoutRequest struct {
	QuoteRequest
	CustomerID uuid.UUID `json:"customerId" validate:"required"`
}

// Service assembles carts from the catalog, prices them and creates orders.
// The totals persisted at checkout are the quote's output verbatim; nothing
// downstream recomputes them.
type Service struct {
	Catalog           Catalog
	Calc              *pricing.Calculator
	Pool              *pgxpool.Pool
	Ledger            *ledger.Store
	CommissionBps     int64
	RetainsServiceFee bool
	Logger            zerolog.Logger
}

// BuildCart resolves selections into a priced cart. Prices are captured here,
// once; a catalog price change mid-checkout does not move the quote.
func (s *Service) BuildCart(ctx context.Context, req QuoteRequest) (catalog.Cart, error) {
	cart := catalog.Cart{
		EventAddress:   req.EventAddress,
		BillingAddress: req.BillingAddress,
	}
	for _, sel := range req.Services {
		svc, err := s.Catalog.GetService(ctx, sel.ServiceID)
		if err != nil {
			return catalog.Cart{}, err
		}
		if len(cart.Services) > 0 && svc.VendorID != cart.Services[0].VendorID {
			return catalog.Cart{}, fmt.Errorf("%w: %s and %s", ErrMixedVendors,
				cart.Services[0].VendorID, svc.VendorID)
		}
		if sel.Quantity > 0 {
			svc.Quantity = sel.Quantity
		}
		if sel.DurationHours > 0 {
			svc.DurationHours = sel.DurationHours
		}
		cart.Services = append(cart.Services, svc)
	}
	if len(req.Items) > 0 {
		cart.Items = make(catalog.SelectedItemMap, len(req.Items))
		for _, item := range req.Items {
			key := catalog.ItemKey{
				MenuItemID:    item.MenuItemID,
				ComboCategory: item.ComboCategory,
				SubOptionID:   item.SubOptionID,
			}
			cart.Items[key] += item.Quantity
		}
	}
	return cart, nil
}

// Quote prices a request without persisting anything.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (pricing.OrderTotals, error) {
	cart, err := s.BuildCart(ctx, req)
	if err != nil {
		return pricing.OrderTotals{}, err
	}
	return s.Calc.Quote(ctx, cart, req.Adjustments)
}

// Checkout prices the request and creates the order with its snapshot in one
// transaction. The commission terms in force right now are captured on the
// order; later changes never touch it.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (ledger.Order, error) {
	cart, err := s.BuildCart(ctx, req.QuoteRequest)
	if err != nil {
		return ledger.Order{}, err
	}
	if len(cart.Services) == 0 {
		return ledger.Order{}, errors.New("checkout: empty cart")
	}
	totals, err := s.Calc.Quote(ctx, cart, req.Adjustments)
	if err != nil {
		return ledger.Order{}, err
	}

	ord := ledger.Order{
		ID:                uuid.New(),
		VendorID:          cart.Services[0].VendorID,
		CustomerID:        req.CustomerID,
		Status:            ledger.StatusPending,
		CommissionBps:     s.CommissionBps,
		RetainsServiceFee: s.RetainsServiceFee,
		Snapshot:          totals,
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("checkout: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.Ledger.CreateOrder(ctx, tx, &ord); err != nil {
		s.countPersist("error")
		return ledger.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		s.countPersist("error")
		return ledger.Order{}, fmt.Errorf("checkout: commit: %w", err)
	}

	s.countPersist("ok")
	s.Logger.Info().
		Str("order_id", ord.ID.String()).
		Str("vendor_id", ord.VendorID.String()).
		Str("total", totals.Total.String()).
		Msg("order created")
	return ord, nil
}

func (s *Service) countPersist(result string) {
	if obs.SnapshotPersistTotal != nil {
		obs.SnapshotPersistTotal.WithLabelValues(result).Inc()
	}
}
