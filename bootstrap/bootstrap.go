// Package bootstrap builds the long-lived dependencies shared by the bot and
// the CLI from a loaded configuration.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"signalbot/broker"
	"signalbot/broker/bridge"
	"signalbot/broker/paper"
	"signalbot/config"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a development logger when debug is set or level is
// "debug", and a production logger at level otherwise.
func NewLogger(level string, debug bool) (*zap.Logger, error) {
	level = strings.ToLower(level)
	if debug || level == "debug" {
		return zap.NewDevelopment()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type initializer interface {
	Initialize(ctx context.Context) error
}

// NewBroker connects the configured broker. The bridge must reach its
// terminal or no trades can be placed, so a failed initialize is an error.
func NewBroker(ctx context.Context, cfg *config.Config, log *zap.Logger) (broker.Broker, error) {
	b, err := OpenBroker(cfg, log)
	if err != nil {
		return nil, err
	}
	if i, ok := b.(initializer); ok {
		if err := i.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("MT5 initialization failed: %w", err)
		}
	}
	return b, nil
}

// OpenBroker builds the configured broker without initializing the terminal.
// The bridge is shared with the running bot, so callers of OpenBroker must
// not Close it.
func OpenBroker(cfg *config.Config, log *zap.Logger) (broker.Broker, error) {
	switch cfg.Broker {
	case "paper":
		log.Info("using paper broker", zap.Float64("balance", cfg.PaperBalance))
		return paper.New(cfg.PaperBalance, paper.DefaultSymbols()...), nil
	case "bridge":
		log.Info("connecting to mt5 bridge", zap.String("url", cfg.BridgeURL))
		return bridge.New(cfg.BridgeURL, log), nil
	}
	return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
}

func ConnectToDatabase(ctx context.Context, url string) (*pgxpool.Pool, error) {
	db, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}
