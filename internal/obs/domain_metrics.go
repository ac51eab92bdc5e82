package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts quote computations by outcome.
	QuoteTotal *prometheus.CounterVec
	// TaxFallbackTotal counts local-table substitutions by reason.
	TaxFallbackTotal *prometheus.CounterVec
	// TaxUnavailableTotal counts quotes completed with no resolvable tax.
	TaxUnavailableTotal prometheus.Counter
	// DeliveryIneligibleTotal counts delivery fee evaluations that ended ineligible.
	DeliveryIneligibleTotal *prometheus.CounterVec
	// SnapshotPersistTotal counts pricing snapshot writes by result.
	SnapshotPersistTotal *prometheus.CounterVec
	// ReconciliationRunsTotal counts accounts-payable reconciliation runs by result.
	ReconciliationRunsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of order quote computations by outcome.",
		}, []string{"result"})
		TaxFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_fallback_total",
			Help:      "Count of tax computations that substituted the local rate table.",
		}, []string{"reason"})
		TaxUnavailableTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_unavailable_total",
			Help:      "Count of quotes completed with no resolvable tax jurisdiction.",
		})
		DeliveryIneligibleTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_ineligible_total",
			Help:      "Count of delivery fee evaluations that ended ineligible, by reason.",
		}, []string{"reason"})
		SnapshotPersistTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_snapshot_persist_total",
			Help:      "Count of pricing snapshot persistence attempts by result.",
		}, []string{"result"})
		ReconciliationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Count of accounts-payable reconciliation runs by result.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, TaxFallbackTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaxFallbackTotal = v
			}
		})
		mustRegisterCollector(reg, TaxUnavailableTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TaxUnavailableTotal = v
			}
		})
		mustRegisterCollector(reg, DeliveryIneligibleTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeliveryIneligibleTotal = v
			}
		})
		mustRegisterCollector(reg, SnapshotPersistTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SnapshotPersistTotal = v
			}
		})
		mustRegisterCollector(reg, ReconciliationRunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReconciliationRunsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
