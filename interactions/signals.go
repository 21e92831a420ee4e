package interactions

import (
	"context"
	"fmt"

	"signalbot/metrics"
	"signalbot/repositories/trades"
	"signalbot/trade"
	"signalbot/tradesignal"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type placer interface {
	Place(ctx context.Context, sig tradesignal.Signal) (*trade.Placement, error)
}

// Journal stores the outcome of every signal line.
type Journal interface {
	Record(ctx context.Context, e trades.Entry) error
}

// SignalHandler places a trade for every signal line in a channel message
// and answers each line in the same channel.
type SignalHandler struct {
	log     *zap.Logger
	trader  placer
	journal Journal
}

// NewSignalHandler builds a handler; j may be nil to disable journaling.
func NewSignalHandler(log *zap.Logger, trader placer, j Journal) *SignalHandler {
	return &SignalHandler{log: log, trader: trader, journal: j}
}

func (h *SignalHandler) Ready(_ *discordgo.Session, r *discordgo.Ready) {
	h.log.Info("connected to discord", zap.String("user", r.User.String()))
}

// MessageCreate is registered with discordgo.Session.AddHandler.
func (h *SignalHandler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.handle(context.Background(), s, s.State.User.ID, m.Message)
}

func (h *SignalHandler) handle(ctx context.Context, s messageSender, selfID string, m *discordgo.Message) {
	if m.Author == nil || m.Author.ID == selfID {
		return
	}

	for _, line := range tradesignal.Lines(m.Content) {
		reply := h.processLine(ctx, m, line)
		if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
			h.log.Error("failed to send reply", zap.Error(err), zap.String("channel_id", m.ChannelID))
		}
	}
}

func (h *SignalHandler) processLine(ctx context.Context, m *discordgo.Message, line string) (reply string) {
	entry := trades.Entry{
		DiscordUserID: m.Author.ID,
		ChannelID:     m.ChannelID,
		Raw:           line,
	}
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			h.log.Error("error processing message", zap.Error(err), zap.String("line", line))
			metrics.SignalsTotal.WithLabelValues("error").Inc()
			entry.Success = false
			entry.Error = err.Error()
			reply = fmt.Sprintf("❌ Error processing trade: %s", err)
		}
		h.record(ctx, entry)
	}()

	sig, err := tradesignal.Parse(line)
	if err != nil {
		h.log.Info("invalid signal format received", zap.String("line", line))
		metrics.SignalsTotal.WithLabelValues("invalid").Inc()
		entry.Error = err.Error()
		return fmt.Sprintf("❌ Invalid signal format: %s\nExpected format: %s", line, tradesignal.Format)
	}

	h.log.Info("received trade signal", zap.Stringer("signal", sig))
	entry.Symbol = sig.Symbol
	entry.OrderType = string(sig.Side)
	entry.OrderKind = string(sig.Kind)

	p, err := h.trader.Place(ctx, sig)
	if p != nil {
		entry.Volume = p.Request.Volume
		if p.Result != nil {
			entry.Retcode = p.Result.Retcode
		}
	}
	if err != nil {
		h.log.Error("failed to place trade", zap.Error(err), zap.String("line", line))
		metrics.SignalsTotal.WithLabelValues("failed").Inc()
		entry.Error = err.Error()
		return fmt.Sprintf("❌ Failed to place trade for: %s. Please check the logs for details.", line)
	}

	metrics.SignalsTotal.WithLabelValues("placed").Inc()
	entry.Success = true
	return fmt.Sprintf("✅ Trade placed successfully for: %s", line)
}

func (h *SignalHandler) record(ctx context.Context, e trades.Entry) {
	if h.journal == nil {
		return
	}
	if err := h.journal.Record(ctx, e); err != nil {
		h.log.Warn("failed to journal signal", zap.Error(err))
	}
}
