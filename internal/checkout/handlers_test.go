package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/geo"
	"github.com/noah-isme/backend-acara/internal/pricing"
	"github.com/noah-isme/backend-acara/internal/tax"
)

type stubCatalog struct {
	services map[uuid.UUID]catalog.SelectedService
}

func (s *stubCatalog) GetService(_ context.Context, id uuid.UUID) (catalog.SelectedService, error) {
	svc, ok := s.services[id]
	if !ok {
		return catalog.SelectedService{}, catalog.ErrServiceNotFound
	}
	return svc, nil
}

type zeroTax struct{}

func (zeroTax) Resolve(_ context.Context, _ tax.Input) (tax.Data, error) {
	return tax.Data{Source: tax.SourceRemote}, nil
}

func testHandler(t *testing.T) (*Handler, uuid.UUID) {
	t.Helper()
	serviceID := uuid.New()
	origin := catalog.Address{Line1: "1 Vendor Way", City: "Austin", State: "TX", PostalCode: "78701", Country: "US"}
	cat := &stubCatalog{services: map[uuid.UUID]catalog.SelectedService{
		serviceID: {
			ID:            serviceID,
			VendorID:      uuid.New(),
			Name:          "Taco bar",
			Kind:          catalog.KindCatering,
			UnitPrice:     10_000,
			Quantity:      1,
			DurationHours: 1,
			Origin:        &origin,
			Details: catalog.ServiceDetails{
				Kind: catalog.KindCatering,
				Catering: &catalog.CateringDetails{
					Delivery: catalog.DeliveryOptions{Offered: true},
				},
			},
		},
	}}
	svc := &Service{
		Catalog: cat,
		Calc: &pricing.Calculator{
			Geo: geo.StaticDistancer{Miles: 3},
			Tax: zeroTax{},
			Fees: pricing.FeeConfig{
				ServiceFeeBps: 500,
				Brackets: []pricing.DeliveryBracket{
					{MinMiles: 0, MaxMiles: 10, Label: "0-10 mi", Fee: 2_500},
				},
			},
		},
	}
	return &Handler{Svc: svc, Validate: validator.New()}, serviceID
}

func TestQuoteHandler(t *testing.T) {
	h, serviceID := testHandler(t)

	body := `{
		"services": [{"serviceId": "` + serviceID.String() + `", "quantity": 5}],
		"eventAddress": {"line1": "9 Party Pl", "city": "Austin", "state": "TX", "postalCode": "78704", "country": "US"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data pricing.OrderTotals `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(50_000), int64(resp.Data.Subtotal))
	require.Equal(t, int64(2_500), int64(resp.Data.ServiceFee))
	require.Equal(t, int64(2_500), int64(resp.Data.DeliveryFee))
	require.Equal(t, resp.Data.Subtotal+resp.Data.ServiceFee+resp.Data.DeliveryFee, resp.Data.Total)
}

type downTax struct{}

func (downTax) Resolve(_ context.Context, _ tax.Input) (tax.Data, error) {
	return tax.Data{Unavailable: true, Source: tax.SourceLocalFallback}, tax.ErrTaxUnavailable
}

func TestQuoteHandlerSurfacesDegradedWarnings(t *testing.T) {
	h, serviceID := testHandler(t)
	h.Svc.Calc.Tax = downTax{}
	h.Svc.Calc.Geo = geo.StaticDistancer{Err: geo.ErrDistanceUnavailable}

	body := `{
		"services": [{"serviceId": "` + serviceID.String() + `", "quantity": 5}],
		"eventAddress": {"line1": "9 Party Pl", "city": "Austin", "state": "TX", "postalCode": "78704", "country": "US"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Warnings []struct {
			Code string `json:"code"`
		} `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	codes := make([]string, 0, len(resp.Warnings))
	for _, w := range resp.Warnings {
		codes = append(codes, w.Code)
	}
	require.Contains(t, codes, "TAX_UNAVAILABLE")
	require.Contains(t, codes, "DISTANCE_UNAVAILABLE")
}

func TestQuoteHandlerRejectsEmptyServices(t *testing.T) {
	h, _ := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(`{"services": []}`))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteHandlerRejectsMixedVendorCart(t *testing.T) {
	h, serviceID := testHandler(t)

	otherID := uuid.New()
	cat := h.Svc.Catalog.(*stubCatalog)
	cat.services[otherID] = catalog.SelectedService{
		ID:        otherID,
		VendorID:  uuid.New(),
		Name:      "String quartet",
		Kind:      catalog.KindStaff,
		UnitPrice: 20_000,
		Quantity:  1,
		Details:   catalog.ServiceDetails{Kind: catalog.KindStaff, Staff: &catalog.StaffDetails{Role: "musician"}},
	}

	body := `{"services": [
		{"serviceId": "` + serviceID.String() + `", "quantity": 1},
		{"serviceId": "` + otherID.String() + `", "quantity": 1}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "same vendor")
}

func TestQuoteHandlerUnknownService(t *testing.T) {
	h, _ := testHandler(t)

	body := `{"services": [{"serviceId": "` + uuid.NewString() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
