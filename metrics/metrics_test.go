package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SignalsTotal.WithLabelValues("placed"))
	SignalsTotal.WithLabelValues("placed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SignalsTotal.WithLabelValues("placed")))
}

func TestHandler(t *testing.T) {
	OrdersTotal.WithLabelValues("XAUUSD", "SELL", "done").Inc()
	h := Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `signalbot_orders_total{result="done",side="SELL",symbol="XAUUSD"}`))
}
