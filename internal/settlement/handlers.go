package settlement

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-acara/internal/common"
	"github.com/noah-isme/backend-acara/internal/ledger"
)

// Handler exposes settlement read endpoints.
type Handler struct {
	Svc *Service
}

// Breakdown returns the financial breakdown for one order.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTLEMENT_NOT_CONFIGURED", "settlement service not configured", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	breakdown, err := h.Svc.Breakdown(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrOrderNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

// AccountsPayable returns per-vendor settlement positions for a period.
// Defaults to the trailing 30 days when no bounds are given.
func (h *Handler) AccountsPayable(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "SETTLEMENT_NOT_CONFIGURED", "settlement service not configured", nil)
		return
	}
	period, err := parsePeriod(r, h.now())
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	if raw := r.URL.Query().Get("vendorId"); raw != "" {
		vendorID, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid vendor id", nil)
			return
		}
		report, err := h.Svc.VendorReport(r.Context(), vendorID, period)
		if err != nil {
			common.RenderError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": []VendorReport{report}, "period": period})
		return
	}

	reports, err := h.Svc.AccountsPayableReport(r.Context(), period)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": reports, "period": period})
}

func (h *Handler) now() time.Time {
	if h.Svc != nil && h.Svc.Now != nil {
		return h.Svc.Now()
	}
	return time.Now()
}

func parsePeriod(r *http.Request, now time.Time) (ledger.Period, error) {
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	if fromStr == "" && toStr == "" {
		return ledger.Period{From: now.AddDate(0, 0, -30), To: now}, nil
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return ledger.Period{}, errors.New("invalid from date")
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return ledger.Period{}, errors.New("invalid to date")
	}
	if !from.Before(to) {
		return ledger.Period{}, errors.New("from must be before to")
	}
	return ledger.Period{From: from, To: to}, nil
}
