package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosig_signals_emitted_total",
			Help: "Total number of signals emitted (by strategy and action).",
		},
		[]string{"strategy", "action"},
	)

	SizingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosig_sizing_failures_total",
			Help: "Signals skipped because the sizer could not price them.",
		},
		[]string{"sizer"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosig_orders_submitted_total",
			Help: "Total number of orders filled by the executor (by side).",
		},
		[]string{"side"},
	)

	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gosig_orders_rejected_total",
			Help: "Sized signals dropped by the risk filter or refused by the executor.",
		},
		[]string{"reason"},
	)

	PositionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gosig_positions_open",
			Help: "Current number of open positions.",
		},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gosig_equity",
			Help: "Current marked-to-market equity of the paper executor.",
		},
	)

	BarsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gosig_bars_processed_total",
			Help: "Bars delivered to the strategy.",
		},
	)
)

func init() {
	prometheus.MustRegister(SignalsEmitted, SizingFailures, OrdersSubmitted, OrdersRejected,
		PositionsOpen, EquityGauge, BarsProcessed)
}
