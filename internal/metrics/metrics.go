package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strike_orders_created_total",
		Help: "Option orders created, by instrument type.",
	}, []string{"type"})

	OrdersSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strike_orders_settled_total",
		Help: "Orders settled to a terminal status, by instrument type and outcome.",
	}, []string{"type", "status"})

	OrdersCanceledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strike_orders_canceled_total",
		Help: "Orders canceled before expiry, by instrument type.",
	}, []string{"type"})

	SweepSettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strike_sweep_settlements_total",
		Help: "Settlement attempts made by the reconciliation sweep instead of a timer.",
	})

	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strike_settlement_duration_seconds",
		Help:    "Wall time of a settle invocation including market-data fetches.",
		Buckets: prometheus.DefBuckets,
	})
)
