package discord

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/attribution"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/keylock"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/retry"
)

var testConfig = HandlerConfig{
	GuildID:        "1",
	QuoteChannelID: "500",
	BotChannelID:   "600",
	OwnerID:        "42",
}

// newTestHandler wires a handler over a MemoryStore. The platform has no
// session, so every Discord call fails and is treated as best-effort.
func newTestHandler(t *testing.T) (*Handler, *graph.MemoryStore) {
	t.Helper()
	store := graph.NewMemoryStore()
	logger := zap.NewNop()
	locks := keylock.New()
	counter := ranking.NewCounter(0)
	resolver := identity.NewResolver(store, logger)
	platform := NewPlatform(nil, testConfig.GuildID, testConfig.QuoteChannelID, testConfig.BotChannelID, logger)
	coordinator := lifecycle.NewCoordinator(store, platform, resolver, counter, locks, logger)

	facade := commands.New(commands.Deps{
		Store:       store,
		Resolver:    resolver,
		Attribution: attribution.NewService(store, locks, logger),
		Engine:      ranking.NewEngine(store, counter),
		Lifecycle:   coordinator,
		Retry:       retry.Config{MaxAttempts: 1},
		Logger:      logger,
	})
	return NewHandler(testConfig, facade, coordinator, resolver, platform, logger), store
}

func TestHandler_RouteMessage(t *testing.T) {
	h, _ := newTestHandler(t)
	user := &discordgo.User{ID: "7", Username: "alice"}
	owner := &discordgo.User{ID: "42", Username: "owner"}
	bot := &discordgo.User{ID: "8", Username: "bot", Bot: true}

	tests := []struct {
		name string
		msg  *discordgo.Message
		want messageRoute
	}{
		{"quote channel post", &discordgo.Message{ChannelID: "500", GuildID: "1", Author: user}, routeQuote},
		{"bot post in quote channel", &discordgo.Message{ChannelID: "500", GuildID: "1", Author: bot}, routeIgnore},
		{"reply in quote channel", &discordgo.Message{ChannelID: "500", GuildID: "1", Author: user, Type: discordgo.MessageTypeReply}, routeIgnore},
		{"dm from user", &discordgo.Message{ChannelID: "900", Author: user}, routeDM},
		{"dm from owner", &discordgo.Message{ChannelID: "900", Author: owner}, routeIgnore},
		{"other guild channel", &discordgo.Message{ChannelID: "700", GuildID: "1", Author: user}, routeIgnore},
		{"no author", &discordgo.Message{ChannelID: "500"}, routeIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.routeMessage(tt.msg))
		})
	}
}

func TestHandler_CommandAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	assert.True(t, h.commandAllowed(cmdRanking, "600", ""))
	assert.False(t, h.commandAllowed(cmdRanking, "601", "600"), "ranking is not a thread command")
	assert.True(t, h.commandAllowed(cmdSaid, "1234", "600"))
	assert.False(t, h.commandAllowed(cmdSaid, "600", ""), "said only works inside a quote thread")
	assert.False(t, h.commandAllowed(cmdDone, "1234", "999"))
	assert.False(t, h.commandAllowed("unknown", "600", ""))
}

func TestCommandDefinitionsHaveScopes(t *testing.T) {
	defs := commandDefinitions()
	require.Len(t, defs, len(commandScopes))
	for _, d := range defs {
		_, ok := commandScopes[d.Name]
		assert.True(t, ok, "command %s has no scope", d.Name)
	}
}

func TestHandler_Dispatch(t *testing.T) {
	ctx := context.Background()
	h, store := newTestHandler(t)

	author, err := store.CreateUser(ctx, "11", "Alice")
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, "22", "Bob")
	require.NoError(t, err)
	require.NoError(t, store.CreateQuote(ctx, graph.Quote{ID: "1001", Text: "hi", CreatedAt: time.Now(), AuthorID: author.ID}))

	assert.Equal(t, "Not yet, nobody has said this quote.", h.dispatch(ctx, cmdDone, nil, "1001"))
	assert.Equal(t, "Bob added successfully.", h.dispatch(ctx, cmdSaid, map[string]string{"name": "Bob"}, "1001"))
	assert.Equal(t, "Bob already said this quote.", h.dispatch(ctx, cmdAssisted, map[string]string{"name": "<@22>"}, "1001"))
	assert.Equal(t, "Quote 1001 finalized.", h.dispatch(ctx, cmdDone, nil, "1001"))
	assert.Equal(t, "User not found.", h.dispatch(ctx, cmdStats, map[string]string{"name": "Carol"}, ""))
	assert.Contains(t, h.dispatch(ctx, cmdRanking, map[string]string{"category": "wrote"}, ""), "01.: Alice: 1")
}

func TestPlatformWithoutSession(t *testing.T) {
	p := NewPlatform(nil, "1", "500", "600", zap.NewNop())

	_, err := p.CreateThread(context.Background(), "1001", "seed")
	assert.Error(t, err)
	assert.Error(t, p.SendDM(context.Background(), "42", "hi"))
}

func TestPlatform_ToMessage(t *testing.T) {
	p := NewPlatform(nil, "1", "500", "600", zap.NewNop())
	ts := time.Unix(1700000000, 0)

	msg := p.toMessage(&discordgo.Message{
		ID:        "1001",
		ChannelID: "500",
		Content:   "hello",
		Timestamp: ts,
		Author:    &discordgo.User{ID: "7", Username: "alice", GlobalName: "Alice"},
	})
	assert.Equal(t, "Alice", msg.AuthorName)
	assert.Equal(t, "7", msg.AuthorID)
	assert.Equal(t, "https://discord.com/channels/1/500/1001", msg.Link)
	assert.Equal(t, ts, msg.Timestamp)
}
