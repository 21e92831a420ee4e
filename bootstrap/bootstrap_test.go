package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"signalbot/broker"
	"signalbot/broker/bridge"
	"signalbot/broker/paper"
	"signalbot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger("info", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}

func TestNewBrokerPaper(t *testing.T) {
	b, err := NewBroker(context.Background(), &config.Config{Broker: "paper", PaperBalance: 50}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &paper.Broker{}, b)

	info, err := b.AccountInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, info.Balance)
}

func TestNewBrokerBridge(t *testing.T) {
	var initialized atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/initialize" {
			initialized.Store(true)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b, err := NewBroker(context.Background(), &config.Config{Broker: "bridge", BridgeURL: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &bridge.Client{}, b)
	assert.True(t, initialized.Load())
}

func TestNewBrokerBridgeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no terminal", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewBroker(context.Background(), &config.Config{Broker: "bridge", BridgeURL: srv.URL}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, broker.ErrNotConnected)
	assert.ErrorContains(t, err, "MT5 initialization failed")
}

func TestOpenBrokerSkipsLifecycle(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	b, err := OpenBroker(&config.Config{Broker: "bridge", BridgeURL: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &bridge.Client{}, b)
	assert.Zero(t, calls.Load())

	_, err = OpenBroker(&config.Config{Broker: "mt4"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, `unknown broker "mt4"`)
}
