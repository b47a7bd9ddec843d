package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/constants"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

const defaultEventTimeout = 30 * time.Second

// HandlerConfig holds the channel and user ids the handler routes on
type HandlerConfig struct {
	GuildID        string
	QuoteChannelID string
	BotChannelID   string
	OwnerID        string
	Quiet          bool
	EventTimeout   time.Duration
}

// Handler handles Discord gateway events
type Handler struct {
	cfg       HandlerConfig
	facade    *commands.Facade
	lifecycle *lifecycle.Coordinator
	resolver  *identity.Resolver
	platform  *Platform
	logger    *zap.Logger
}

// NewHandler creates a new Discord event handler
func NewHandler(
	cfg HandlerConfig,
	facade *commands.Facade,
	coordinator *lifecycle.Coordinator,
	resolver *identity.Resolver,
	platform *Platform,
	logger *zap.Logger,
) *Handler {
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = defaultEventTimeout
	}
	return &Handler{
		cfg:       cfg,
		facade:    facade,
		lifecycle: coordinator,
		resolver:  resolver,
		platform:  platform,
		logger:    logger,
	}
}

// Register attaches the handler's callbacks to the session
func (h *Handler) Register(s *discordgo.Session) {
	s.AddHandler(h.HandleReady)
	s.AddHandler(h.HandleMessage)
	s.AddHandler(h.HandleMessageUpdate)
	s.AddHandler(h.HandleMessageDelete)
	s.AddHandler(h.HandleInteraction)
}

func (h *Handler) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.cfg.EventTimeout)
}

// HandleReady registers the slash commands and sets the presence
func (h *Handler) HandleReady(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("Logged in", zap.String("user", r.User.Username))

	if h.cfg.Quiet {
		if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{Status: string(discordgo.StatusInvisible)}); err != nil {
			h.logger.Warn("Failed to go invisible", zap.Error(err))
		}
	} else if err := s.UpdateWatchStatus(0, "the quote channel"); err != nil {
		h.logger.Warn("Failed to set watch status", zap.Error(err))
	}

	created, err := s.ApplicationCommandBulkOverwrite(r.User.ID, h.cfg.GuildID, commandDefinitions())
	if err != nil {
		h.logger.Error("Failed to register slash commands", zap.Error(err))
		return
	}
	h.logger.Info("Slash commands registered", zap.Int("count", len(created)))
}

type messageRoute int

const (
	routeIgnore messageRoute = iota
	routeQuote
	routeDM
)

func (h *Handler) routeMessage(m *discordgo.Message) messageRoute {
	if m.Author == nil || m.Author.Bot || m.Type != discordgo.MessageTypeDefault {
		return routeIgnore
	}
	if m.ChannelID == h.cfg.QuoteChannelID {
		return routeQuote
	}
	if m.GuildID == "" && m.Author.ID != h.cfg.OwnerID {
		return routeDM
	}
	return routeIgnore
}

// HandleMessage turns quote channel posts into quotes and relays DMs to the owner
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	switch h.routeMessage(m.Message) {
	case routeQuote:
		h.submitQuote(m.Message)
	case routeDM:
		h.relayDM(m.Message)
	}
}

func (h *Handler) submitQuote(m *discordgo.Message) {
	ctx, cancel := h.eventContext()
	defer cancel()

	_, err := h.lifecycle.Submit(ctx, *h.platform.toMessage(m))
	switch {
	case err == nil:
	case apperrors.IsAlreadyExists(err):
		h.logger.Debug("Quote already registered", zap.String("message_id", m.ID))
	default:
		h.logger.Error("Failed to register quote",
			zap.String("message_id", m.ID),
			zap.Error(err),
		)
	}
}

func (h *Handler) relayDM(m *discordgo.Message) {
	if h.cfg.OwnerID == "" {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	author := fmt.Sprintf("%s (ID: %s)", m.Author.String(), m.Author.ID)
	if user, err := h.resolver.Resolve(ctx, graph.PlatformID(m.Author.ID)); err == nil {
		author = user.Name
	} else if !apperrors.IsNotFound(err) {
		h.logger.Error("Failed to look up DM author", zap.String("user_id", m.Author.ID), zap.Error(err))
	}

	h.logger.Info("Received DM", zap.String("from", author))
	if err := h.platform.SendDM(ctx, h.cfg.OwnerID, fmt.Sprintf("DM from %s:\n%s", author, m.Content)); err != nil {
		h.logger.Error("Failed to relay DM", zap.String("from", author), zap.Error(err))
	}
}

// HandleMessageUpdate keeps stored quote text in sync with edits
func (h *Handler) HandleMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil || m.ChannelID != h.cfg.QuoteChannelID {
		return
	}
	// Embed-only updates carry no content
	if m.Content == "" {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	if _, err := h.lifecycle.Edit(ctx, m.ID, m.Content); err != nil {
		if apperrors.IsNotFound(err) {
			h.logger.Debug("Edited message is not a quote", zap.String("message_id", m.ID))
			return
		}
		h.logger.Error("Failed to update quote text", zap.String("message_id", m.ID), zap.Error(err))
	}
}

// HandleMessageDelete removes quotes whose message was deleted
func (h *Handler) HandleMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.Message == nil || m.ChannelID != h.cfg.QuoteChannelID {
		return
	}
	ctx, cancel := h.eventContext()
	defer cancel()

	if err := h.lifecycle.Remove(ctx, m.ID); err != nil {
		if apperrors.IsNotFound(err) {
			h.logger.Debug("Deleted message was not a quote", zap.String("message_id", m.ID))
			return
		}
		h.logger.Error("Failed to remove quote", zap.String("message_id", m.ID), zap.Error(err))
	}
}

// commandAllowed checks that a command is used where it belongs
func (h *Handler) commandAllowed(name, channelID, parentID string) bool {
	switch commandScopes[name] {
	case scopeBotChannel:
		return channelID == h.cfg.BotChannelID
	case scopeQuoteThread:
		return parentID == h.cfg.BotChannelID
	}
	return false
}

// HandleInteraction answers slash commands
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	channel, err := s.State.Channel(i.ChannelID)
	if err != nil {
		channel, err = s.Channel(i.ChannelID)
		if err != nil {
			h.logger.Error("Failed to look up interaction channel", zap.String("channel_id", i.ChannelID), zap.Error(err))
			return
		}
	}
	if !h.commandAllowed(data.Name, channel.ID, channel.ParentID) {
		h.respond(s, i, "This command can't be used here.")
		return
	}

	ctx, cancel := h.eventContext()
	defer cancel()

	reply := h.dispatch(ctx, data.Name, options(data), channel.Name)
	if data.Name == cmdDone && reply != constants.MsgNotYetSaid {
		// The thread is gone once finalized; a reply would bounce
		h.respondQuietly(s, i, reply)
		return
	}
	h.respond(s, i, reply)
}

func options(data discordgo.ApplicationCommandInteractionData) map[string]string {
	opts := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		if o.Type == discordgo.ApplicationCommandOptionString {
			opts[o.Name] = o.StringValue()
		}
	}
	return opts
}

// dispatch runs a command; threadName is the quote id for thread-scoped commands
func (h *Handler) dispatch(ctx context.Context, name string, opts map[string]string, threadName string) string {
	h.logger.Debug("Slash command",
		zap.String("command", name),
		zap.Any("options", opts),
		zap.String("thread", threadName),
	)
	switch name {
	case cmdStats:
		return h.facade.Stats(ctx, opts["name"])
	case cmdRanking:
		return h.facade.Ranking(ctx, opts["category"])
	case cmdQuotes:
		return h.facade.Quotes(ctx, opts["name"])
	case cmdSaid:
		return h.facade.Attribute(ctx, string(graph.Said), opts["name"], threadName)
	case cmdAssisted:
		return h.facade.Attribute(ctx, string(graph.Assisted), opts["name"], threadName)
	case cmdDone:
		return h.facade.Finalize(ctx, threadName)
	}
	return fmt.Sprintf("Unknown command %q.", name)
}

// respond answers the interaction, continuing with follow-ups past the length limit
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	chunks := splitMessage(content, constants.DiscordMaxMessageLength)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: chunks[0]},
	})
	if err != nil {
		h.logger.Error("Failed to respond to interaction", zap.Error(err))
		return
	}
	for idx, chunk := range chunks[1:] {
		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: chunk}); err != nil {
			h.logger.Error("Failed to send follow-up",
				zap.Int("chunk", idx+2),
				zap.Int("total_chunks", len(chunks)),
				zap.Error(err),
			)
			return
		}
	}
}

func (h *Handler) respondQuietly(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		h.logger.Debug("Interaction response dropped", zap.String("content", content), zap.Error(err))
	}
}
