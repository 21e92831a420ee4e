package main

import (
	"bufio"
	"fmt"
	"log"
	"strings"

	"signalbot/bootstrap"
	"signalbot/config"
	"signalbot/repositories/trades"
	"signalbot/sizing"
	"signalbot/trade"
	"signalbot/tradesignal"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}

	if err := newRoot(logger).Execute(); err != nil {
		logger.Fatal("failed to execute command", zap.Error(err))
	}
}

func newRoot(logger *zap.Logger) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "signalbot-cli",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to config.ini")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(Setup(&configPath))
	root.AddCommand(Parse())
	root.AddCommand(LotSize(loadConfig, logger))
	root.AddCommand(ListTrades(loadConfig, logger))
	root.AddCommand(ListApplicationCommands(loadConfig, logger))
	root.AddCommand(ResetApplicationCommands(loadConfig, logger))
	return root
}

type configLoader func() (*config.Config, error)

func Setup(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Prompts for the Discord token and writes it to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), "Please enter your Discord token: ")
			token, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && token == "" {
				return fmt.Errorf("failed to read token: %w", err)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return config.ErrMissingToken
			}

			if err := config.Save(*configPath, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discord token saved to %s.\n", *configPath)
			return nil
		},
	}
}

func Parse() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <signal>",
		Short: "Parses a signal line and prints the order it would produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := tradesignal.Parse(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("%w, expected: %s", err, tradesignal.Format)
			}

			tr := trade.New(zap.NewNop(), nil, nil)
			req := tr.Request(sig, 0)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signal:     %s\n", sig)
			fmt.Fprintf(out, "action:     %s\n", req.Action)
			fmt.Fprintf(out, "type:       %s\n", req.Type)
			fmt.Fprintf(out, "risk:       %g%%\n", sig.RiskPct)
			fmt.Fprintf(out, "price:      %g\n", req.Price)
			fmt.Fprintf(out, "sl:         %g\n", req.SL)
			fmt.Fprintf(out, "tp:         %g\n", req.TP)
			if req.Expiration != 0 {
				fmt.Fprintf(out, "expiration: %d\n", req.Expiration)
			} else {
				fmt.Fprintln(out, "expiration: GTC")
			}
			fmt.Fprintf(out, "comment:    %q\n", req.Comment)
			return nil
		},
	}
}

func LotSize(loadConfig configLoader, logger *zap.Logger) *cobra.Command {
	var (
		symbol          string
		risk, entry, sl float64
	)
	cmd := &cobra.Command{
		Use:   "lotsize",
		Short: "Calculates a lot size against the configured broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			// The bridge belongs to the running bot; no initialize or shutdown here.
			b, err := bootstrap.OpenBroker(cfg, logger)
			if err != nil {
				return err
			}

			account, err := b.AccountInfo(ctx)
			if err != nil {
				return err
			}
			info, err := b.SymbolInfo(ctx, symbol)
			if err != nil {
				return err
			}
			lots, err := sizing.LotSize(logger, account.Balance, risk, *info, entry, sl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g\n", lots)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to size")
	cmd.Flags().Float64Var(&risk, "risk", 1, "risk in percent of balance")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&sl, "sl", 0, "stop loss price")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("sl")
	return cmd
}

func ListTrades(loadConfig configLoader, logger *zap.Logger) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Lists the most recent journaled signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.PostgresURL == "" {
				return fmt.Errorf("POSTGRESQL_URL is not configured")
			}

			db, err := bootstrap.ConnectToDatabase(cmd.Context(), cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := trades.NewPostgresRepository(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			logger.Info("found journal entries", zap.Int("count", len(entries)))
			for _, e := range entries {
				status := "ok"
				if !e.Success {
					status = "failed: " + e.Error
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %-6g %s  (%s)\n",
					e.CreatedAt.Format("2006-01-02 15:04:05"), e.Symbol, e.Volume, e.Raw, status)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func ListApplicationCommands(loadConfig configLoader, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list-application-commands [guildId]",
		Short: "Lists registered slash commands, globally or for one guild",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, appCommands, err := fetchApplicationCommands(loadConfig, logger, args)
			if err != nil {
				return err
			}
			for _, appCmd := range appCommands {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", appCmd.ID, appCmd.Name, appCmd.Description)
			}
			return nil
		},
	}
}

func ResetApplicationCommands(loadConfig configLoader, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-application-commands [guildId]",
		Short: "Deletes every registered slash command, globally or for one guild",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, appID, appCommands, err := fetchApplicationCommands(loadConfig, logger, args)
			if err != nil {
				return err
			}
			for _, appCmd := range appCommands {
				logger.Info("deleting application command", zap.String("name", appCmd.Name))
				if err := session.ApplicationCommandDelete(appID, appCmd.GuildID, appCmd.ID); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// fetchApplicationCommands lists the bot's commands in the guild named by
// args, or its global commands when args is empty.
func fetchApplicationCommands(
	loadConfig configLoader,
	logger *zap.Logger,
	args []string,
) (*discordgo.Session, string, []*discordgo.ApplicationCommand, error) {
	guildID := ""
	if len(args) == 1 {
		guildID = args[0]
	}

	session, appID, err := setupDiscordSession(loadConfig, logger)
	if err != nil {
		return nil, "", nil, err
	}

	appCommands, err := session.ApplicationCommands(appID, guildID)
	if err != nil {
		return nil, "", nil, err
	}
	logger.Info("found commands", zap.String("guild", guildID), zap.Int("count", len(appCommands)))
	return session, appID, appCommands, nil
}

// setupDiscordSession returns a REST-only session and the bot's application id.
func setupDiscordSession(loadConfig configLoader, log *zap.Logger) (*discordgo.Session, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}

	log.Info("instantiating discord session")
	discordSession, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to instantiate discord connection: %w", err)
	}

	usr, err := discordSession.User("@me")
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return discordSession, usr.ID, nil
}
