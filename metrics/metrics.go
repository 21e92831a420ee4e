package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signalbot"

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "signals_total", Help: "Signal lines received, by outcome"},
		[]string{"result"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "orders_total", Help: "Orders sent to the broker"},
		[]string{"symbol", "side", "result"},
	)
	AccountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "account_balance", Help: "Last observed account balance"},
	)
	AccountEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "account_equity", Help: "Last observed account equity"},
	)
	AccountMarginFree = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "account_margin_free", Help: "Last observed free margin"},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, OrdersTotal, AccountBalance, AccountEquity, AccountMarginFree)
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
