package accountwatch

import (
	"context"
	"time"

	"signalbot/broker"
	"signalbot/metrics"

	"go.uber.org/zap"
)

type accountInfoProvider interface {
	AccountInfo(ctx context.Context) (*broker.AccountInfo, error)
}

// AccountWatch polls the account and exports balance, equity and free
// margin as gauges.
type AccountWatch struct {
	Log      *zap.Logger
	Broker   accountInfoProvider
	Interval time.Duration
}

func (aw *AccountWatch) Run(ctx context.Context) {
	interval := aw.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if err := aw.RunOnce(ctx); err != nil && ctx.Err() == nil {
			aw.Log.Error("failed to poll account", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (aw *AccountWatch) RunOnce(ctx context.Context) error {
	info, err := aw.Broker.AccountInfo(ctx)
	if err != nil {
		return err
	}

	metrics.AccountBalance.Set(info.Balance)
	metrics.AccountEquity.Set(info.Equity)
	metrics.AccountMarginFree.Set(info.MarginFree)
	aw.Log.Debug("account polled",
		zap.Float64("balance", info.Balance),
		zap.Float64("equity", info.Equity),
		zap.Float64("margin_free", info.MarginFree),
	)
	return nil
}
