package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/constants"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// Platform drives attribution threads and message lookups over a Discord session.
// Threads are started from a seed message in the bot channel, so a thread and
// its seed message share one id.
type Platform struct {
	session        *discordgo.Session
	guildID        string
	quoteChannelID string
	botChannelID   string
	logger         *zap.Logger
}

var _ lifecycle.Platform = (*Platform)(nil)

const (
	archivedThreadPageSize = 50
	maxArchivedThreadPages = 10
)

// NewPlatform creates a Discord platform adapter
func NewPlatform(session *discordgo.Session, guildID, quoteChannelID, botChannelID string, logger *zap.Logger) *Platform {
	return &Platform{
		session:        session,
		guildID:        guildID,
		quoteChannelID: quoteChannelID,
		botChannelID:   botChannelID,
		logger:         logger,
	}
}

// CreateThread posts seed into the bot channel and starts a public thread on it
func (p *Platform) CreateThread(ctx context.Context, title, seed string) (string, error) {
	if p.session == nil {
		return "", apperrors.ErrPlatformUnavailable
	}
	msg, err := p.session.ChannelMessageSend(p.botChannelID, truncate(seed, constants.DiscordMaxMessageLength), discordgo.WithContext(ctx))
	if err != nil {
		return "", apperrors.NewPlatformCallFailed("ChannelMessageSend", err)
	}
	thread, err := p.session.MessageThreadStart(p.botChannelID, msg.ID, title, constants.ThreadAutoArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		// Leave no orphaned seed behind
		if delErr := p.session.ChannelMessageDelete(p.botChannelID, msg.ID, discordgo.WithContext(ctx)); delErr != nil {
			p.logger.Warn("Failed to delete seed message", zap.String("message_id", msg.ID), zap.Error(delErr))
		}
		return "", apperrors.NewPlatformCallFailed("MessageThreadStart", err)
	}

	p.logger.Info("Created attribution thread",
		zap.String("title", title),
		zap.String("thread_id", thread.ID),
	)
	return thread.ID, nil
}

// FindThread looks the thread up among the guild's active threads, then among
// the bot channel's archived ones (threads archive after ThreadAutoArchiveMinutes)
func (p *Platform) FindThread(ctx context.Context, title string) (string, error) {
	if p.session == nil {
		return "", apperrors.ErrPlatformUnavailable
	}
	list, err := p.session.GuildThreadsActive(p.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", apperrors.NewPlatformCallFailed("GuildThreadsActive", err)
	}
	if id, ok := matchThread(list.Threads, title, p.botChannelID); ok {
		return id, nil
	}

	var before *time.Time
	for page := 0; page < maxArchivedThreadPages; page++ {
		archived, err := p.session.ThreadsArchived(p.botChannelID, before, archivedThreadPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return "", apperrors.NewPlatformCallFailed("ThreadsArchived", err)
		}
		if id, ok := matchThread(archived.Threads, title, p.botChannelID); ok {
			return id, nil
		}
		if !archived.HasMore || len(archived.Threads) == 0 {
			break
		}
		before = oldestArchive(archived.Threads)
		if before == nil {
			break
		}
	}
	return "", apperrors.NewNotFound("thread", title)
}

func matchThread(threads []*discordgo.Channel, title, parentID string) (string, bool) {
	for _, th := range threads {
		if th.Name == title && th.ParentID == parentID {
			return th.ID, true
		}
	}
	return "", false
}

// oldestArchive is the pagination cursor for the next archived page
func oldestArchive(threads []*discordgo.Channel) *time.Time {
	var oldest *time.Time
	for _, th := range threads {
		if th.ThreadMetadata == nil {
			continue
		}
		ts := th.ThreadMetadata.ArchiveTimestamp
		if oldest == nil || ts.Before(*oldest) {
			oldest = &ts
		}
	}
	return oldest
}

// DeleteThread removes the thread and its seed message
func (p *Platform) DeleteThread(ctx context.Context, threadID string) error {
	if p.session == nil {
		return apperrors.ErrPlatformUnavailable
	}
	if _, err := p.session.ChannelDelete(threadID, discordgo.WithContext(ctx)); err != nil {
		return apperrors.NewPlatformCallFailed("ChannelDelete", err)
	}
	if err := p.session.ChannelMessageDelete(p.botChannelID, threadID, discordgo.WithContext(ctx)); err != nil {
		p.logger.Warn("Failed to delete thread seed message",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
	}
	p.logger.Info("Deleted attribution thread", zap.String("thread_id", threadID))
	return nil
}

// FetchMessage returns a message of the quote channel, from the state cache if possible
func (p *Platform) FetchMessage(ctx context.Context, messageID string) (*lifecycle.Message, error) {
	if p.session == nil {
		return nil, apperrors.ErrPlatformUnavailable
	}
	if p.session.State != nil {
		if m, err := p.session.State.Message(p.quoteChannelID, messageID); err == nil {
			return p.toMessage(m), nil
		}
	}
	m, err := p.session.ChannelMessage(p.quoteChannelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("message", messageID)
		}
		return nil, apperrors.NewPlatformCallFailed("ChannelMessage", err)
	}
	return p.toMessage(m), nil
}

// DisplayName prefers the guild nickname, then the global name, then the username.
// An id Discord does not know is reported as NotFound.
func (p *Platform) DisplayName(ctx context.Context, userID string) (string, error) {
	if p.session == nil {
		return "", apperrors.ErrPlatformUnavailable
	}
	if member, err := p.session.GuildMember(p.guildID, userID, discordgo.WithContext(ctx)); err == nil && member.User != nil {
		if member.Nick != "" {
			return member.Nick, nil
		}
		return userName(member.User), nil
	}
	u, err := p.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return "", apperrors.NewNotFound("user", userID)
		}
		return "", apperrors.NewPlatformCallFailed("User", err)
	}
	return userName(u), nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// SendDM delivers content to a user's DM channel, split at the message limit
func (p *Platform) SendDM(ctx context.Context, userID, content string) error {
	if p.session == nil {
		return apperrors.ErrPlatformUnavailable
	}
	ch, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.NewPlatformCallFailed("UserChannelCreate", err)
	}
	for _, chunk := range splitMessage(content, constants.DiscordMaxMessageLength) {
		if _, err := p.session.ChannelMessageSend(ch.ID, chunk, discordgo.WithContext(ctx)); err != nil {
			return apperrors.NewPlatformCallFailed("ChannelMessageSend", err)
		}
	}
	return nil
}

func (p *Platform) toMessage(m *discordgo.Message) *lifecycle.Message {
	msg := &lifecycle.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
		Timestamp: m.Timestamp,
		Link:      commands.MessageLink(p.guildID, m.ChannelID)(m.ID),
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = userName(m.Author)
	}
	return msg
}

func userName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
