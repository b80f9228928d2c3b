// Package metrics defines the Prometheus metrics of the discount service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationDuration tracks the latency of cart evaluations.
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "discount_evaluation_duration_seconds",
		Help:    "Duration of cart discount evaluations in seconds",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	// DiscountsApplied counts applied discounts per kind.
	DiscountsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discounts_applied_total",
		Help: "Number of discounts that made it into evaluation results",
	}, []string{"kind"})

	// DiscountsRejected counts rejected rules per reason.
	DiscountsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discounts_rejected_total",
		Help: "Number of rule rejections per reason",
	}, []string{"reason"})

	// Redemptions counts committed redemptions per outcome.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_redemptions_total",
		Help: "Number of checkout redemption attempts",
	}, []string{"status"})

	// CatalogSize reports the number of rules in the active catalog snapshot.
	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "discount_catalog_rules",
		Help: "Rules in the active catalog snapshot",
	})

	// CatalogInvalidRecords reports rows skipped at the last catalog load.
	CatalogInvalidRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "discount_catalog_invalid_records",
		Help: "Stored rows skipped at the last catalog load",
	})
)
