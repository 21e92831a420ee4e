package interactions

import (
	"context"
	"fmt"

	"signalbot/broker"

	"github.com/bwmarrin/discordgo"
)

type accountInfoProvider interface {
	AccountInfo(ctx context.Context) (*broker.AccountInfo, error)
}

func NewAccountInteraction(b accountInfoProvider) *Interaction {
	h := func(ctx context.Context, s responder, i *discordgo.InteractionCreate) error {
		info, err := b.AccountInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to get account info: %w", err)
		}

		return respond(s, i, fmt.Sprintf(
			"Balance: %.2f\nEquity: %.2f\nMargin: %.2f\nFree Margin: %.2f",
			info.Balance, info.Equity, info.Margin, info.MarginFree,
		))
	}

	return &Interaction{
		ApplicationCommand: &discordgo.ApplicationCommand{
			Name:        "account",
			Description: "Shows the trading account balance and margin",
		},
		handler: h,
	}
}
