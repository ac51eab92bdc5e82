package tax

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-acara/internal/obs"
)

// Resolver orchestrates remote tax estimation with a local jurisdiction-table
// fallback. It owns the "remote zero is suspicious" heuristic: a hosted
// estimate of exactly zero for an address the local table knows to be taxed is
// replaced by the local result, with an explicit log trail.
type Resolver struct {
	Method Method
	Client Client
	Table  *Table
	Logger zerolog.Logger
}

// Resolve computes tax for the input. Outages and unresolvable jurisdictions
// degrade to a zero amount with Unavailable set; the returned error wraps
// ErrTaxUnavailable in that case so callers can log it, but checkout is
// expected to proceed.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Data, error) {
	if r == nil {
		return unavailable(), fmt.Errorf("%w: resolver not configured", ErrTaxUnavailable)
	}
	switch r.Method {
	case MethodManual:
		return r.resolveLocal(in)
	case MethodRemote, "":
		return r.resolveRemote(ctx, in)
	default:
		return unavailable(), fmt.Errorf("%w: unknown method %q", ErrTaxUnavailable, r.Method)
	}
}

func (r *Resolver) resolveRemote(ctx context.Context, in Input) (Data, error) {
	if r.Client == nil || in.Address == nil {
		r.countFallback("no_remote")
		return r.resolveLocal(in)
	}
	est, err := r.Client.EstimateTax(ctx, in)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("remote tax estimate failed, falling back to local table")
		r.countFallback("remote_error")
		return r.resolveLocal(in)
	}
	if est.Amount == 0 {
		// A remote zero is trusted only when the local table agrees the
		// address is untaxed. Otherwise substitute the local result and
		// leave a trace; silent zero tax has bitten us before.
		if entry, ok := r.Table.Lookup(in.Address); ok && entry.RateBps > 0 {
			local := r.localData(entry, in)
			r.Logger.Warn().
				Str("jurisdiction", entry.Jurisdiction).
				Str("calculation_id", est.CalculationID).
				Str("amount_substituted", local.Amount.String()).
				Msg("remote tax returned zero for a taxed jurisdiction, using local fallback")
			r.countFallback("suspect_zero")
			return local, nil
		}
	}
	return Data{
		Rate:         effectiveRate(est, in),
		Jurisdiction: primaryJurisdiction(est),
		Amount:       est.Amount,
		Source:       SourceRemote,
	}, nil
}

func (r *Resolver) resolveLocal(in Input) (Data, error) {
	entry, ok := r.Table.Lookup(in.Address)
	if !ok {
		return unavailable(), fmt.Errorf("%w: no jurisdiction for address", ErrTaxUnavailable)
	}
	return r.localData(entry, in), nil
}

func (r *Resolver) localData(entry TableEntry, in Input) Data {
	return Data{
		Rate:         entry.Rate(),
		Jurisdiction: entry.Jurisdiction,
		Amount:       entry.Compute(in.Base()),
		Source:       SourceLocalFallback,
	}
}

func (r *Resolver) countFallback(reason string) {
	if obs.TaxFallbackTotal != nil {
		obs.TaxFallbackTotal.WithLabelValues(reason).Inc()
	}
}

func unavailable() Data {
	return Data{Source: SourceLocalFallback, Unavailable: true}
}

func effectiveRate(est Estimate, in Input) float64 {
	if len(est.Breakdown) > 0 {
		var rate float64
		for _, b := range est.Breakdown {
			rate += b.Rate
		}
		return rate
	}
	base := in.Base()
	if base <= 0 {
		return 0
	}
	return float64(est.Amount) / float64(base)
}

func primaryJurisdiction(est Estimate) string {
	if len(est.Breakdown) > 0 {
		return est.Breakdown[0].Jurisdiction
	}
	return ""
}
