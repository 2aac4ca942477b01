package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bwengye/bwengye/internal/analytics"
	"github.com/bwengye/bwengye/internal/auth"
	"github.com/bwengye/bwengye/internal/catalog"
	"github.com/bwengye/bwengye/internal/chat"
	"github.com/bwengye/bwengye/internal/config"
	"github.com/bwengye/bwengye/internal/db"
	"github.com/bwengye/bwengye/internal/inference"
	"github.com/bwengye/bwengye/internal/notify"
	"github.com/bwengye/bwengye/internal/notify/discord"
	"github.com/bwengye/bwengye/internal/notify/slack"
	"github.com/bwengye/bwengye/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Bwengye HTTP server",
		Long:  "Starts the chat, routing and analytics API. Blocks until SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bwengye.yaml", "path to Bwengye config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config from %s\n", configPath)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	provider, err := inference.NewOpenAI(inference.OpenAIOpts{
		APIKey:    apiKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		MaxTokens: cfg.Chat.MaxCompletionTokens,
		Timeout:   time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init openai provider: %w", err)
	}

	verifier, err := auth.NewHTTPVerifier(auth.Opts{
		UserInfoURL: cfg.Auth.UserInfoURL,
		Timeout:     time.Duration(cfg.Auth.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init auth verifier: %w", err)
	}

	notifier := buildNotifier(cmd, cfg)

	emitter := analytics.NewEmitter(gormDB, cmd.ErrOrStderr())
	defer emitter.Close()

	cat := catalog.New(gormDB)

	orchestrator, err := chat.New(chat.Opts{
		DB:             gormDB,
		Catalog:        cat,
		Provider:       provider,
		Sink:           emitter,
		Notifier:       notifier,
		Out:            cmd.ErrOrStderr(),
		SystemPreamble: cfg.Chat.SystemPreamble,
		HistoryLimit:   cfg.Chat.HistoryLimit,
		TitleMaxLen:    cfg.Chat.TitleMaxLen,
	})
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	sweeper, err := analytics.NewSweeper(analytics.SweeperOpts{
		DB:            gormDB,
		RetentionDays: cfg.Analytics.RetentionDays,
		Schedule:      cfg.Analytics.SweepSchedule,
		Notifier:      notifier,
		Out:           cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init sweeper: %w", err)
	}
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer sweeper.Stop()
	fmt.Fprintf(out, "Analytics sweep scheduled (%s, retention %dd)\n",
		cfg.Analytics.SweepSchedule, cfg.Analytics.RetentionDays)

	srv, err := server.New(server.Opts{
		DB:           gormDB,
		Orchestrator: orchestrator,
		Catalog:      cat,
		Provider:     provider,
		Sink:         emitter,
		Verifier:     verifier,
		Port:         cfg.Server.Port,
		Out:          out,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Server stopped.")
	return nil
}

// buildNotifier assembles the ops alert fan-out from whichever channels are
// configured. Missing tokens disable a channel with a warning rather than
// failing startup.
func buildNotifier(cmd *cobra.Command, cfg *config.Config) notify.Notifier {
	errOut := cmd.ErrOrStderr()
	var multi notify.Multi

	if cfg.Notify.Slack.Channel != "" {
		n, err := slack.New(slack.Opts{
			BotToken: os.Getenv("SLACK_BOT_TOKEN"),
			Channel:  cfg.Notify.Slack.Channel,
		})
		if err != nil {
			fmt.Fprintf(errOut, "slack alerts disabled: %v\n", err)
		} else {
			multi = append(multi, n)
		}
	}
	if cfg.Notify.Discord.Channel != "" {
		n, err := discord.New(discord.Opts{
			BotToken: os.Getenv("DISCORD_BOT_TOKEN"),
			Channel:  cfg.Notify.Discord.Channel,
		})
		if err != nil {
			fmt.Fprintf(errOut, "discord alerts disabled: %v\n", err)
		} else {
			multi = append(multi, n)
		}
	}

	if len(multi) == 0 {
		return notify.Nop{}
	}
	return multi
}
