package sizing

import (
	"testing"

	"signalbot/broker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var gold = broker.SymbolInfo{
	Name:         "XAUUSD",
	ContractSize: 100,
	Point:        0.01,
	TickValue:    1,
	VolumeMin:    0.01,
	VolumeMax:    50,
	VolumeStep:   0.01,
}

func TestLotSize(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		risk    float64
		entry   float64
		sl      float64
		want    float64
	}{
		// 100 at risk over 1560 ticks of 1.0 = 0.0641 lots
		{"floors to step", 10000, 1, 2558, 2573.6, 0.06},
		{"stop below entry", 10000, 1, 2573.6, 2558, 0.06},
		{"exact step multiple", 3000, 1, 2000, 1990, 0.03},
		{"clamped to minimum", 100, 0.5, 2558, 2600, 0.01},
		{"clamped to maximum", 10000000, 10, 2558, 2558.5, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LotSize(zaptest.NewLogger(t), tt.balance, tt.risk, gold, tt.entry, tt.sl)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLotSizeZeroRisk(t *testing.T) {
	_, err := LotSize(zaptest.NewLogger(t), 10000, 1, gold, 2558, 2558)
	assert.ErrorIs(t, err, ErrZeroRisk)

	noValue := gold
	noValue.TickValue = 0
	_, err = LotSize(zaptest.NewLogger(t), 10000, 1, noValue, 2558, 2500)
	assert.ErrorIs(t, err, ErrZeroRisk)
}

func TestLotSizeInvalidSymbol(t *testing.T) {
	bad := gold
	bad.Point = 0
	_, err := LotSize(zaptest.NewLogger(t), 10000, 1, bad, 2558, 2500)
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestFloorToStep(t *testing.T) {
	assert.Equal(t, 0.3, floorToStep(0.3, 0.01))
	assert.Equal(t, 0.29, floorToStep(0.2999, 0.01))
	assert.Equal(t, 1.5, floorToStep(1.57, 0.5))
	assert.Equal(t, 0.123, floorToStep(0.123, 0))
}
