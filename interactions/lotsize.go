package interactions

import (
	"context"
	"fmt"

	"signalbot/broker"
	"signalbot/sizing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type sizingInfoProvider interface {
	accountInfoProvider
	SymbolInfo(ctx context.Context, symbol string) (*broker.SymbolInfo, error)
}

// NewLotSizeInteraction sizes a position the same way a signal would be
// sized, without placing anything.
func NewLotSizeInteraction(b sizingInfoProvider, log *zap.Logger) *Interaction {
	h := func(ctx context.Context, s responder, i *discordgo.InteractionCreate) error {
		var (
			symbol          string
			risk, entry, sl float64
		)
		for _, opt := range i.ApplicationCommandData().Options {
			switch opt.Name {
			case "symbol":
				symbol = opt.StringValue()
			case "risk":
				risk = opt.FloatValue()
			case "entry":
				entry = opt.FloatValue()
			case "sl":
				sl = opt.FloatValue()
			}
		}

		account, err := b.AccountInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to get account info: %w", err)
		}
		info, err := b.SymbolInfo(ctx, symbol)
		if err != nil {
			return err
		}
		lots, err := sizing.LotSize(log, account.Balance, risk, *info, entry, sl)
		if err != nil {
			return err
		}

		return respond(s, i, fmt.Sprintf(
			"Lot size for %s risking %g%% (%.2f of %.2f): %g",
			symbol, risk, account.Balance*risk/100, account.Balance, lots,
		))
	}

	return &Interaction{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "lotsize",
			Description: "Calculates the lot size for a signal without placing it",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "symbol", Description: "Symbol, e.g. XAUUSD", Required: true},
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "risk", Description: "Risk in percent of balance", Required: true},
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "entry", Description: "Entry price", Required: true},
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "sl", Description: "Stop loss price", Required: true},
			},
		},
		handler: h,
	}
}
