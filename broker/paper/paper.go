// Package paper is an in-memory broker for dry runs. Orders are accepted and
// recorded but never reach a market.
package paper

import (
	"context"
	"fmt"
	"sync"

	"signalbot/broker"
)

// Retcodes the paper broker answers with on rejection.
const (
	RetcodeInvalidVolume = 10014
	RetcodeInvalidStops  = 10016
)

// DefaultSymbols roughly matches a retail MT5 account.
func DefaultSymbols() []broker.SymbolInfo {
	return []broker.SymbolInfo{
		{Name: "EURUSD", ContractSize: 100000, Point: 0.00001, TickValue: 1, VolumeMin: 0.01, VolumeMax: 100, VolumeStep: 0.01},
		{Name: "GBPJPY", ContractSize: 100000, Point: 0.001, TickValue: 0.67, VolumeMin: 0.01, VolumeMax: 100, VolumeStep: 0.01},
		{Name: "XAUUSD", ContractSize: 100, Point: 0.01, TickValue: 1, VolumeMin: 0.01, VolumeMax: 50, VolumeStep: 0.01},
		{Name: "US30", ContractSize: 1, Point: 0.1, TickValue: 0.1, VolumeMin: 0.1, VolumeMax: 500, VolumeStep: 0.1},
	}
}

type Broker struct {
	mu       sync.Mutex
	account  broker.AccountInfo
	symbols  map[string]broker.SymbolInfo
	selected map[string]bool
	orders   []broker.OrderRequest
	lastErr  broker.LastError
	ticket   uint64
}

var _ broker.Broker = (*Broker)(nil)

func New(balance float64, symbols ...broker.SymbolInfo) *Broker {
	b := &Broker{
		account: broker.AccountInfo{
			Balance:    balance,
			Equity:     balance,
			MarginFree: balance,
		},
		symbols:  map[string]broker.SymbolInfo{},
		selected: map[string]bool{},
		ticket:   1000,
	}
	for _, s := range symbols {
		b.symbols[s.Name] = s
	}
	return b
}

func (b *Broker) SelectSymbol(_ context.Context, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.symbols[symbol]; !ok {
		b.lastErr = broker.LastError{Code: -1, Description: "symbol not found"}
		return fmt.Errorf("%w: %s", broker.ErrSymbolNotFound, symbol)
	}
	b.selected[symbol] = true
	return nil
}

func (b *Broker) AccountInfo(context.Context) (*broker.AccountInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := b.account
	return &info, nil
}

func (b *Broker) SymbolInfo(_ context.Context, symbol string) (*broker.SymbolInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	info, ok := b.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", broker.ErrSymbolNotFound, symbol)
	}
	return &info, nil
}

func (b *Broker) SendOrder(_ context.Context, req broker.OrderRequest) (*broker.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	info, ok := b.symbols[req.Symbol]
	if !ok || !b.selected[req.Symbol] {
		b.lastErr = broker.LastError{Code: -2, Description: "symbol not selected"}
		return nil, nil
	}
	if req.Volume < info.VolumeMin || req.Volume > info.VolumeMax {
		return &broker.OrderResult{Retcode: RetcodeInvalidVolume, Comment: "Invalid volume"}, nil
	}
	if !stopsValid(req) {
		return &broker.OrderResult{Retcode: RetcodeInvalidStops, Comment: "Invalid stops"}, nil
	}

	b.ticket++
	b.orders = append(b.orders, req)
	b.lastErr = broker.LastError{Code: 1, Description: "Success"}

	res := &broker.OrderResult{
		Retcode: broker.RetcodeDone,
		Order:   b.ticket,
		Volume:  req.Volume,
		Price:   req.Price,
		Comment: "Request executed",
	}
	if req.Action == broker.ActionDeal {
		res.Deal = b.ticket
	}
	return res, nil
}

// stopsValid reports whether SL and TP sit on the right side of the price.
// A zero level means no stop.
func stopsValid(req broker.OrderRequest) bool {
	switch req.Type {
	case broker.OrderTypeBuy, broker.OrderTypeBuyLimit, broker.OrderTypeBuyStop:
		return (req.SL == 0 || req.SL < req.Price) && (req.TP == 0 || req.TP > req.Price)
	default:
		return (req.SL == 0 || req.SL > req.Price) && (req.TP == 0 || req.TP < req.Price)
	}
}

func (b *Broker) LastError(context.Context) (broker.LastError, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr, nil
}

// Orders returns a copy of the accepted requests.
func (b *Broker) Orders() []broker.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broker.OrderRequest, len(b.orders))
	copy(out, b.orders)
	return out
}

func (b *Broker) Close() error { return nil }
