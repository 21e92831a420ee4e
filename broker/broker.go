// Package broker describes the MetaTrader 5 operations the bot depends on.
// Numeric constants match the MT5 enumerations so requests can be forwarded
// to a terminal unchanged.
package broker

import (
	"context"
	"errors"
	"fmt"
)

type OrderType int

const (
	OrderTypeBuy OrderType = iota
	OrderTypeSell
	OrderTypeBuyLimit
	OrderTypeSellLimit
	OrderTypeBuyStop
	OrderTypeSellStop
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeBuy:
		return "BUY"
	case OrderTypeSell:
		return "SELL"
	case OrderTypeBuyLimit:
		return "BUY_LIMIT"
	case OrderTypeSellLimit:
		return "SELL_LIMIT"
	case OrderTypeBuyStop:
		return "BUY_STOP"
	case OrderTypeSellStop:
		return "SELL_STOP"
	}
	return fmt.Sprintf("OrderType(%d)", int(t))
}

type Action int

const (
	ActionDeal    Action = 1
	ActionPending Action = 5
)

func (a Action) String() string {
	switch a {
	case ActionDeal:
		return "DEAL"
	case ActionPending:
		return "PENDING"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

type Filling int

const (
	FillingFOK Filling = iota
	FillingIOC
	FillingReturn
)

type TimeType int

const (
	TimeGTC TimeType = iota
	TimeDay
	TimeSpecified
)

// RetcodeDone is TRADE_RETCODE_DONE.
const RetcodeDone = 10009

type AccountInfo struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	Margin     float64 `json:"margin"`
	MarginFree float64 `json:"margin_free"`
}

type SymbolInfo struct {
	Name         string  `json:"name"`
	ContractSize float64 `json:"trade_contract_size"`
	// Point is the minimum price movement.
	Point      float64 `json:"point"`
	TickValue  float64 `json:"trade_tick_value"`
	VolumeMin  float64 `json:"volume_min"`
	VolumeMax  float64 `json:"volume_max"`
	VolumeStep float64 `json:"volume_step"`
}

type OrderRequest struct {
	Action    Action    `json:"action"`
	Symbol    string    `json:"symbol"`
	Volume    float64   `json:"volume"`
	Type      OrderType `json:"type"`
	Price     float64   `json:"price"`
	SL        float64   `json:"sl"`
	TP        float64   `json:"tp"`
	Deviation int       `json:"deviation"`
	Magic     int       `json:"magic"`
	Filling   Filling   `json:"type_filling"`
	TypeTime  TimeType  `json:"type_time"`
	// Expiration is a unix timestamp, only sent with TimeSpecified.
	Expiration int64  `json:"expiration,omitempty"`
	Comment    string `json:"comment"`
}

type OrderResult struct {
	Retcode int     `json:"retcode"`
	Deal    uint64  `json:"deal"`
	Order   uint64  `json:"order"`
	Volume  float64 `json:"volume"`
	Price   float64 `json:"price"`
	Comment string  `json:"comment"`
}

// LastError mirrors the (code, description) pair reported by the terminal.
type LastError struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

func (e LastError) String() string {
	return fmt.Sprintf("(%d, %q)", e.Code, e.Description)
}

var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNotConnected   = errors.New("terminal not connected")
)

type Broker interface {
	SelectSymbol(ctx context.Context, symbol string) error
	AccountInfo(ctx context.Context) (*AccountInfo, error)
	SymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	// SendOrder returns a nil result without error when the terminal rejected
	// the request before producing one; LastError explains why.
	SendOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	LastError(ctx context.Context) (LastError, error)
	Close() error
}
