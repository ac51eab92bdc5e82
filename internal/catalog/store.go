package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-acara/internal/money"
)

// ErrServiceNotFound is returned when no catalog record exists for the id.
var ErrServiceNotFound = errors.New("catalog: service not found")

// Store reads vendor service records from Postgres and normalizes their
// details on the way out. Records may be stale relative to live pricing; the
// calculator always prefers the price captured in the cart.
type Store struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

// GetService returns a service record shaped for cart entry. Quantity and
// duration are cart-owned and left at their defaults.
func (s *Store) GetService(ctx context.Context, id uuid.UUID) (SelectedService, error) {
	if s == nil || s.Pool == nil {
		return SelectedService{}, errors.New("catalog: store not configured")
	}
	key := "catalog:service:" + id.String()
	var cached SelectedService
	if ok, _ := s.Cache.GetJSON(ctx, key, &cached); ok {
		return cached, nil
	}

	row := s.Pool.QueryRow(ctx, `
		SELECT id, vendor_id, name, kind, unit_price_cents, details,
		       origin_line1, origin_city, origin_state, origin_postal_code, origin_country
		FROM services
		WHERE id = $1`, id)

	var (
		svc     SelectedService
		kind    string
		price   int64
		details json.RawMessage
		origin  Address
	)
	err := row.Scan(&svc.ID, &svc.VendorID, &svc.Name, &kind, &price, &details,
		&origin.Line1, &origin.City, &origin.State, &origin.PostalCode, &origin.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SelectedService{}, ErrServiceNotFound
		}
		return SelectedService{}, fmt.Errorf("catalog: get service: %w", err)
	}
	svc.Kind = ServiceKind(kind)
	svc.UnitPrice = money.Money(price)
	svc.Quantity = 1
	svc.DurationHours = 1
	if !origin.IsZero() {
		svc.Origin = &origin
	}
	svc.Details, err = NormalizeDetails(svc.Kind, details)
	if err != nil {
		return SelectedService{}, err
	}

	_ = s.Cache.SetJSON(ctx, key, svc)
	return svc, nil
}
