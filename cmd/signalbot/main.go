package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalbot/accountwatch"
	"signalbot/bootstrap"
	"signalbot/config"
	"signalbot/interactions"
	"signalbot/metrics"
	"signalbot/repositories/trades"
	"signalbot/tracer"
	"signalbot/trade"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func setupDiscord(logger *zap.Logger, token string) (*discordgo.Session, error) {
	logger.Info("setting up discord client")
	discord, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discordgo: %w", err)
	}

	discord.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return discord, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.JaegerURL != "" {
		tp, err := tracer.NewProvider(cfg.JaegerURL, "prod")
		if err != nil {
			return err
		}
		otel.SetTracerProvider(tp)
		defer func() {
			_ = tp.Shutdown(context.Background())
		}()
	}

	b, err := bootstrap.NewBroker(ctx, cfg, logger.Named("broker"))
	if err != nil {
		return err
	}
	defer b.Close()

	var journal interactions.Journal
	if cfg.PostgresURL != "" {
		db, err := bootstrap.ConnectToDatabase(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := trades.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate journal: %w", err)
		}
		journal = repo
	} else {
		logger.Info("POSTGRESQL_URL not set, journal disabled")
	}

	limit := rate.Inf
	if cfg.OrderRate > 0 {
		limit = rate.Limit(cfg.OrderRate)
	}
	trader := trade.New(logger.Named("trade"), b, rate.NewLimiter(limit, 1))
	trader.Deviation = cfg.Deviation
	trader.Magic = cfg.Magic

	discord, err := setupDiscord(logger, cfg.DiscordToken)
	if err != nil {
		return err
	}

	signals := interactions.NewSignalHandler(logger.Named("signals"), trader, journal)
	router := interactions.NewRouter(logger.Named("router"))
	discord.AddHandler(signals.Ready)
	discord.AddHandler(signals.MessageCreate)
	discord.AddHandler(router.Handle)

	if err := discord.Open(); err != nil {
		return fmt.Errorf("failed to create connection to discord: %w", err)
	}
	defer discord.Close()

	// State.User is only filled once Ready has been processed.
	me, err := discord.User("@me")
	if err != nil {
		return fmt.Errorf("failed to fetch bot user: %w", err)
	}
	err = router.RegisterRoute(discord, me.ID, cfg.GuildID,
		interactions.NewAccountInteraction(b),
		interactions.NewLotSizeInteraction(b, logger.Named("lotsize")),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: otelhttp.NewHandler(metrics.Handler(), "http.metrics"),
	}
	go func() {
		logger.Info("listening for http", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	aw := accountwatch.AccountWatch{
		Log:      logger.Named("accountwatch"),
		Broker:   b,
		Interval: cfg.WatchEvery,
	}
	go aw.Run(ctx)

	logger.Info("setup finished")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func main() {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:          "signalbot",
		Short:        "Places MetaTrader 5 orders from trade signals posted on Discord",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if errors.Is(err, config.ErrMissingToken) {
				fmt.Println("Discord token not found in config.ini. Please enter it to proceed.")
				os.Exit(1)
			}
			if err != nil {
				return err
			}

			logger, err := bootstrap.NewLogger(cfg.LogLevel, debug)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg, logger); err != nil {
				logger.Error("signalbot stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.ini")
	root.Flags().BoolVar(&debug, "debug", false, "enable development logging")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
