// Package metrics exposes prometheus counters for the storefront workflows
// and serves them on a dedicated listener when enabled.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/storebot/internal/logger"
)

var (
	// UpdatesTotal counts inbound Telegram updates.
	UpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storebot_updates_total",
		Help: "Total number of Telegram updates received",
	})

	// OrdersTotal counts order workflow outcomes by terminal status.
	OrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storebot_orders_total",
		Help: "Total number of order transitions by status",
	}, []string{"status"})

	// DepositsTotal counts deposit workflow outcomes by status.
	DepositsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storebot_deposits_total",
		Help: "Total number of deposit transitions by status",
	}, []string{"status"})

	// LedgerFailures counts recoverable ledger errors surfaced to users.
	LedgerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storebot_ledger_failures_total",
		Help: "Total number of recoverable ledger failures by kind",
	}, []string{"kind"})
)

// Serve registers the collectors and starts the /metrics listener.
func Serve(listen string) {
	prometheus.MustRegister(UpdatesTotal, OrdersTotal, DepositsTotal, LedgerFailures)

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	go func() {
		if err := http.ListenAndServe(listen, router); err != nil {
			logger.L.Error("metrics listener stopped",
				slog.String("event", "metrics.listen"),
				slog.String("listen", listen),
				slog.String("err", err.Error()),
			)
		}
	}()
}
