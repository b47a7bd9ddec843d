package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/attribution"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/bootstrap"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/console"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/discord"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/keylock"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/retry"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/config"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/logger"
)

// botIntents are the gateway events the bot needs: guild channels and threads,
// guild and direct messages, and message content for quote text.
func botIntents() discordgo.Intent {
	return discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages
}

func handlerConfig(cfg *config.Config) discord.HandlerConfig {
	return discord.HandlerConfig{
		GuildID:        cfg.GuildID,
		QuoteChannelID: cfg.QuoteChannelID,
		BotChannelID:   cfg.BotChannelID,
		OwnerID:        cfg.OwnerID,
		Quiet:          cfg.Quiet,
		// Room for a few storage calls plus retries
		EventTimeout: 6 * cfg.QueryTimeout,
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogFile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Named("bot")
	log.Info("Starting Discord bot...")

	if err := cfg.ValidateDiscord(); err != nil {
		log.Fatal("Invalid Discord configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	counter := ranking.NewCounter(0)
	total, err := counter.Resync(ctx, store)
	if err != nil {
		log.Fatal("Failed to load quote count", zap.Error(apperrors.NewStartupFailure("quote counter", err)))
	}
	log.Info("Quote count loaded", zap.Int("total_quotes", total))

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(apperrors.NewStartupFailure("discord session", err)))
	}

	// Initialize dependencies
	locks := keylock.New()
	resolver := identity.NewResolver(store, log)
	platform := discord.NewPlatform(dg, cfg.GuildID, cfg.QuoteChannelID, cfg.BotChannelID, log)
	coordinator := lifecycle.NewCoordinator(store, platform, resolver, counter, locks, log)
	facade := commands.New(commands.Deps{
		Store:       store,
		Resolver:    resolver,
		Attribution: attribution.NewService(store, locks, log),
		Engine:      ranking.NewEngine(store, counter),
		Lifecycle:   coordinator,
		Link:        commands.MessageLink(cfg.GuildID, cfg.QuoteChannelID),
		Retry:       retry.DefaultConfig(),
		Logger:      log,
	})

	handler := discord.NewHandler(handlerConfig(cfg), facade, coordinator, resolver, platform, log)
	handler.Register(dg)

	dg.Identify.Intents = botIntents()
	log.Info("Discord bot intents configured",
		zap.Bool("guilds", (dg.Identify.Intents&discordgo.IntentsGuilds) != 0),
		zap.Bool("guild_messages", (dg.Identify.Intents&discordgo.IntentsGuildMessages) != 0),
		zap.Bool("message_content", (dg.Identify.Intents&discordgo.IntentsMessageContent) != 0),
		zap.Bool("direct_messages", (dg.Identify.Intents&discordgo.IntentsDirectMessages) != 0),
	)

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(apperrors.NewStartupFailure("discord gateway", err)))
	}
	defer dg.Close()

	// Create shutdown channel for programmatic shutdown
	shutdownChan := make(chan os.Signal, 1)

	// Console "exit" shuts the bot down; a closed stdin only stops the console
	go func() {
		err := console.New(facade, os.Stdin, os.Stdout, log).Run(ctx)
		switch err {
		case nil:
			shutdownChan <- os.Interrupt
		case io.EOF:
			log.Debug("Console input closed")
		default:
			log.Warn("Console stopped", zap.Error(err))
		}
	}()

	log.Info("Discord bot is running. Press CTRL-C or type exit to stop.")

	// Wait for interrupt signal (from CTRL-C or console exit)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	log.Info("Shutting down Discord bot...")
}
