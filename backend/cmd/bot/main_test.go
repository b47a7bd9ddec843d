package main

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/PhilVoel/Zitate-Bot/backend/pkg/config"
)

func TestBotIntents(t *testing.T) {
	intents := botIntents()

	tests := []struct {
		name   string
		intent discordgo.Intent
		want   bool
	}{
		{"guilds for threads", discordgo.IntentsGuilds, true},
		{"guild messages", discordgo.IntentsGuildMessages, true},
		{"message content for quote text", discordgo.IntentsMessageContent, true},
		{"direct messages for relay", discordgo.IntentsDirectMessages, true},
		{"voice is not needed", discordgo.IntentsGuildVoiceStates, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intents&tt.intent != 0)
		})
	}
}

func TestHandlerConfig(t *testing.T) {
	cfg := &config.Config{
		GuildID:        "1",
		QuoteChannelID: "500",
		BotChannelID:   "600",
		OwnerID:        "42",
		Quiet:          true,
		QueryTimeout:   5 * time.Second,
	}

	hc := handlerConfig(cfg)
	assert.Equal(t, "500", hc.QuoteChannelID)
	assert.Equal(t, "600", hc.BotChannelID)
	assert.Equal(t, "42", hc.OwnerID)
	assert.True(t, hc.Quiet)
	assert.Equal(t, 30*time.Second, hc.EventTimeout)
}
