package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-acara/internal/catalog"
	"github.com/noah-isme/backend-acara/internal/common"
	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/pricing"
)

// Handler wires quoting and checkout to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Quote prices a cart without creating an order. Degraded tax or delivery
// states come back in the body for the UI to surface as banners.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_NOT_CONFIGURED", "checkout service not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	totals, err := h.Svc.Quote(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := map[string]any{"data": totals}
	if warnings := quoteWarnings(totals); len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	common.JSON(w, http.StatusOK, resp)
}

// quoteWarnings converts degraded pricing states into banner payloads. The
// quote itself stays 200; the client decides how loudly to surface these.
func quoteWarnings(totals pricing.OrderTotals) []common.ErrorBody {
	var warnings []common.ErrorBody
	if totals.TaxData.Unavailable {
		warnings = append(warnings, common.ErrorBody{
			Code:    common.CodeTaxUnavailable,
			Message: "tax could not be determined; the total excludes tax",
		})
	}
	if !totals.Delivery.Eligible && totals.Delivery.Reason == pricing.ReasonDistanceUnknown {
		warnings = append(warnings, common.ErrorBody{
			Code:    common.CodeDistanceUnavailable,
			Message: "delivery distance could not be determined; no delivery fee was quoted",
		})
	}
	return warnings
}

// Checkout creates an order with its immutable pricing snapshot.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "CHECKOUT_NOT_CONFIGURED", "checkout service not configured", nil)
		return
	}
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, err.Error(), nil)
		return
	}
	ord, err := h.Svc.Checkout(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": ord})
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "service not found", nil)
	case errors.Is(err, ErrMixedVendors):
		common.JSONError(w, http.StatusBadRequest, common.CodeValidation, "all services in an order must belong to the same vendor", nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.RenderError(w, common.InvalidAmountError(err))
	default:
		common.RenderError(w, err)
	}
}
