package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signalbot/broker"
	"signalbot/metrics"
	"signalbot/sizing"
	"signalbot/tracer"
	"signalbot/tradesignal"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultDeviation = 20
	DefaultMagic     = 234000
)

var (
	ErrInvalidVolume = errors.New("invalid volume")
	ErrNoResult      = errors.New("order failed without a result")
)

// RetcodeError is returned when the terminal answered with anything but DONE.
type RetcodeError struct {
	Retcode   int
	Comment   string
	LastError broker.LastError
}

func (e *RetcodeError) Error() string {
	return fmt.Sprintf("order failed: %d - %s", e.Retcode, e.LastError)
}

type Trader struct {
	Log       *zap.Logger
	Broker    broker.Broker
	Limiter   *rate.Limiter
	Deviation int
	Magic     int
	Now       func() time.Time
}

func New(log *zap.Logger, b broker.Broker, limiter *rate.Limiter) *Trader {
	return &Trader{
		Log:       log,
		Broker:    b,
		Limiter:   limiter,
		Deviation: DefaultDeviation,
		Magic:     DefaultMagic,
		Now:       time.Now,
	}
}

// Placement describes an order that reached the broker.
type Placement struct {
	Request broker.OrderRequest
	Result  *broker.OrderResult
}

// Place sizes sig against the current balance and sends it. A non-nil
// Placement is returned whenever a request was built, even if it failed.
func (t *Trader) Place(ctx context.Context, sig tradesignal.Signal) (*Placement, error) {
	ctx, span := tracer.Start(ctx, "trade.place")
	defer span.End()

	log := t.Log.With(zap.String("symbol", sig.Symbol))

	if err := t.Broker.SelectSymbol(ctx, sig.Symbol); err != nil {
		return nil, fmt.Errorf("failed to select symbol %s: %w", sig.Symbol, err)
	}

	account, err := t.Broker.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}
	log.Info("account info",
		zap.Float64("balance", account.Balance),
		zap.Float64("equity", account.Equity),
		zap.Float64("margin", account.Margin),
		zap.Float64("margin_free", account.MarginFree),
	)

	info, err := t.Broker.SymbolInfo(ctx, sig.Symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol info: %w", err)
	}

	volume, err := sizing.LotSize(log, account.Balance, sig.RiskPct, *info, sig.Entry, sig.SL)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate lot size: %w", err)
	}
	if volume < info.VolumeMin || volume > info.VolumeMax {
		return nil, fmt.Errorf("%w: %g for %s, min %g, max %g",
			ErrInvalidVolume, volume, sig.Symbol, info.VolumeMin, info.VolumeMax)
	}

	req := t.Request(sig, volume)
	p := &Placement{Request: req}

	log.Info("sending order",
		zap.Stringer("action", req.Action),
		zap.Float64("volume", req.Volume),
		zap.Stringer("type", req.Type),
		zap.Float64("price", req.Price),
		zap.Float64("sl", req.SL),
		zap.Float64("tp", req.TP),
		zap.Int("type_time", int(req.TypeTime)),
		zap.Int64("expiration", req.Expiration),
		zap.String("comment", req.Comment),
	)

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return p, fmt.Errorf("order throttled: %w", err)
		}
	}

	res, err := t.Broker.SendOrder(ctx, req)
	if err != nil {
		t.countOrder(sig, "error")
		return p, fmt.Errorf("failed to send order: %w", err)
	}
	p.Result = res

	if res == nil {
		t.countOrder(sig, "no_result")
		le, _ := t.Broker.LastError(ctx)
		return p, fmt.Errorf("%w: last error %s", ErrNoResult, le)
	}
	if res.Retcode != broker.RetcodeDone {
		t.countOrder(sig, "rejected")
		le, _ := t.Broker.LastError(ctx)
		return p, &RetcodeError{Retcode: res.Retcode, Comment: res.Comment, LastError: le}
	}

	t.countOrder(sig, "done")
	log.Info("order placed",
		zap.Uint64("order", res.Order),
		zap.Uint64("deal", res.Deal),
		zap.Float64("volume", res.Volume),
		zap.Float64("price", res.Price),
	)
	return p, nil
}

// Request builds the order for sig without sending it.
func (t *Trader) Request(sig tradesignal.Signal, volume float64) broker.OrderRequest {
	req := broker.OrderRequest{
		Action:    broker.ActionPending,
		Symbol:    sig.Symbol,
		Volume:    volume,
		Type:      OrderType(sig.Side, sig.Kind),
		Price:     sig.Entry,
		SL:        sig.SL,
		TP:        sig.TP,
		Deviation: t.Deviation,
		Magic:     t.Magic,
		Filling:   broker.FillingIOC,
		TypeTime:  broker.TimeGTC,
		Comment:   sig.Comment,
	}
	if sig.Kind == tradesignal.Market {
		req.Action = broker.ActionDeal
	}
	if exp, ok := Expiry(sig.Expiration, t.Now()); ok {
		req.TypeTime = broker.TimeSpecified
		req.Expiration = exp.Unix()
	}
	return req
}

func OrderType(side tradesignal.Side, kind tradesignal.Kind) broker.OrderType {
	buy := side == tradesignal.Buy
	switch kind {
	case tradesignal.Limit:
		if buy {
			return broker.OrderTypeBuyLimit
		}
		return broker.OrderTypeSellLimit
	case tradesignal.Stop:
		if buy {
			return broker.OrderTypeBuyStop
		}
		return broker.OrderTypeSellStop
	default:
		if buy {
			return broker.OrderTypeBuy
		}
		return broker.OrderTypeSell
	}
}

// Expiry returns the end of day (23:59:59 local) an order with exp should
// expire at. WEEK counts working days up to Friday, rolling over to the next
// week late on a Friday.
func Expiry(exp tradesignal.Expiration, now time.Time) (time.Time, bool) {
	var days int
	switch exp {
	case tradesignal.Day:
	case tradesignal.Week:
		// Monday = 0
		weekday := (int(now.Weekday()) + 6) % 7
		days = ((4-weekday)%5 + 5) % 5
		if days == 0 && now.Hour() >= 23 {
			days = 5
		}
	default:
		return time.Time{}, false
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+days, 23, 59, 59, 0, now.Location()), true
}

func (t *Trader) countOrder(sig tradesignal.Signal, result string) {
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, string(sig.Side), result).Inc()
}
