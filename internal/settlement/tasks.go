package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-acara/internal/ledger"
	"github.com/noah-isme/backend-acara/internal/lock"
)

// TypeRefreshReport is the task type for scheduled accounts-payable refreshes.
const TypeRefreshReport = "settlement:refresh_report"

type refreshReportPayload struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewRefreshReportTask builds a task that recomputes the accounts-payable
// report for the period.
func NewRefreshReportTask(period ledger.Period) (*asynq.Task, error) {
	payload, err := json.Marshal(refreshReportPayload{From: period.From, To: period.To})
	if err != nil {
		return nil, fmt.Errorf("settlement: encode task payload: %w", err)
	}
	return asynq.NewTask(TypeRefreshReport, payload, asynq.MaxRetry(3)), nil
}

// TaskHandler processes settlement background tasks. Locker serializes
// refreshes across worker replicas; two concurrent folds over the same period
// waste ledger reads for the same result.
type TaskHandler struct {
	Svc     *Service
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// HandleRefreshReport recomputes and re-caches the period report.
func (h *TaskHandler) HandleRefreshReport(ctx context.Context, t *asynq.Task) error {
	var payload refreshReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("settlement: decode task payload: %w", err)
	}
	period := ledger.Period{From: payload.From, To: payload.To}
	if period.From.IsZero() && period.To.IsZero() {
		// Scheduled refreshes carry no bounds; default to the trailing 30
		// days the dashboard shows.
		now := time.Now()
		if h.Svc != nil && h.Svc.Now != nil {
			now = h.Svc.Now()
		}
		period = ledger.Period{From: now.AddDate(0, 0, -30), To: now}
	}
	refresh := func(ctx context.Context) error {
		return h.Svc.RefreshAccountsPayable(ctx, period)
	}
	var err error
	if h.Locker.R != nil {
		ttl := h.LockTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		err = h.Locker.WithLock(ctx, "settlement:refresh", ttl, refresh)
	} else {
		err = refresh(ctx)
	}
	if err != nil {
		h.Logger.Error().Err(err).
			Time("from", period.From).
			Time("to", period.To).
			Msg("accounts payable refresh failed")
		return err
	}
	h.Logger.Info().
		Time("from", period.From).
		Time("to", period.To).
		Msg("accounts payable report refreshed")
	return nil
}

// Register attaches settlement handlers to the worker mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeRefreshReport, h.HandleRefreshReport)
}
