package interactions

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

type commandCreator interface {
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

type handler = func(ctx context.Context, s responder, i *discordgo.InteractionCreate) error
type Interaction struct {
	*discordgo.ApplicationCommand
	handler handler
}

// Router is safe for concurrent use. Routes may be registered while the
// session is already delivering interactions.
type Router struct {
	mu     sync.RWMutex
	routes map[string]handler
	log    *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	return &Router{
		routes: map[string]handler{},
		log:    log,
	}
}

// RegisterRoute creates the commands with Discord and routes them. An empty
// guildID registers them globally.
func (r *Router) RegisterRoute(s commandCreator, appID, guildID string, interactions ...*Interaction) error {
	for _, i := range interactions {
		r.log.Info("registering command with discord", zap.String("name", i.Name), zap.String("guild", guildID))
		_, err := s.ApplicationCommandCreate(appID, guildID, i.ApplicationCommand)
		if err != nil {
			return err
		}

		r.mu.Lock()
		r.routes[i.Name] = i.handler
		r.mu.Unlock()
	}

	return nil
}

// Handle is registered with discordgo.Session.AddHandler.
func (r *Router) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	r.handle(context.Background(), s, i)
}

func (r *Router) handle(ctx context.Context, s responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	r.log.Info("received interaction", zap.String("name", name))
	r.mu.RLock()
	handler, ok := r.routes[name]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn("no command handler registered", zap.String("name", name))
		_ = respond(s, i, "We couldn't handle that command.")
		return
	}

	err := handler(ctx, s, i)
	if err != nil {
		r.log.Error("error handling interaction", zap.Error(err))
		_ = respond(s, i, "❌ "+err.Error())
	}
}

func respond(s responder, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}
