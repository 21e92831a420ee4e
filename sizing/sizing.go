// Package sizing turns a risk percentage into a position size.
package sizing

import (
	"errors"
	"math"

	"signalbot/broker"

	"go.uber.org/zap"
)

var (
	ErrZeroRisk      = errors.New("potential loss per lot is zero or negligible, check SL and entry price")
	ErrInvalidSymbol = errors.New("symbol has no point size")
)

// LotSize sizes a position so that hitting sl from entry loses riskPct percent
// of balance. Sizes outside the symbol's volume range are clamped to it;
// sizes inside it are floored to a multiple of the volume step.
func LotSize(
	log *zap.Logger,
	balance float64,
	riskPct float64,
	info broker.SymbolInfo,
	entry float64,
	sl float64,
) (float64, error) {
	if info.Point <= 0 {
		return 0, ErrInvalidSymbol
	}

	riskAmount := balance * (riskPct / 100)
	stopLossTicks := math.Abs(entry-sl) / info.Point
	lossPerLot := stopLossTicks * info.TickValue

	log.Debug("sizing position",
		zap.String("symbol", info.Name),
		zap.Float64("risk_amount", riskAmount),
		zap.Float64("contract_size", info.ContractSize),
		zap.Float64("point", info.Point),
		zap.Float64("tick_value", info.TickValue),
		zap.Float64("volume_min", info.VolumeMin),
		zap.Float64("volume_max", info.VolumeMax),
		zap.Float64("volume_step", info.VolumeStep),
		zap.Float64("stop_loss_ticks", stopLossTicks),
		zap.Float64("loss_per_lot", lossPerLot),
	)

	if lossPerLot == 0 {
		return 0, ErrZeroRisk
	}

	lots := riskAmount / lossPerLot
	raw := lots
	switch {
	case lots < info.VolumeMin:
		lots = info.VolumeMin
	case lots > info.VolumeMax:
		lots = info.VolumeMax
	default:
		lots = floorToStep(lots, info.VolumeStep)
	}

	log.Debug("sized position",
		zap.String("symbol", info.Name),
		zap.Float64("raw_lots", raw),
		zap.Float64("lots", lots),
	)
	return lots, nil
}

func floorToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	// The epsilon keeps 0.3/0.01 = 29.999999999999996 from flooring to 29.
	n := math.Floor(v/step + 1e-9)
	return math.Round(n*step*1e8) / 1e8
}
