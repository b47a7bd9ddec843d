package discord

import "github.com/bwmarrin/discordgo"

// Slash command names
const (
	cmdStats    = "stats"
	cmdRanking  = "ranking"
	cmdQuotes   = "quotes"
	cmdSaid     = "said"
	cmdAssisted = "assisted"
	cmdDone     = "done"
)

type commandScope int

const (
	// scopeBotChannel commands run in the bot channel itself
	scopeBotChannel commandScope = iota + 1
	// scopeQuoteThread commands run inside an attribution thread of the bot channel
	scopeQuoteThread
)

var commandScopes = map[string]commandScope{
	cmdStats:    scopeBotChannel,
	cmdRanking:  scopeBotChannel,
	cmdQuotes:   scopeBotChannel,
	cmdSaid:     scopeQuoteThread,
	cmdAssisted: scopeQuoteThread,
	cmdDone:     scopeQuoteThread,
}

func nameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: description,
		Required:    true,
	}
}

// commandDefinitions are registered as guild commands on Ready
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdStats,
			Description: "Show how often someone said, wrote or assisted quotes",
			Options:     []*discordgo.ApplicationCommandOption{nameOption("Name or mention of the user")},
		},
		{
			Name:        cmdRanking,
			Description: "Rank all members by said, written or assisted quotes",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "category",
					Description: "What to rank by",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "said", Value: "said"},
						{Name: "wrote", Value: "wrote"},
						{Name: "assisted", Value: "assisted"},
					},
				},
			},
		},
		{
			Name:        cmdQuotes,
			Description: "List the quotes someone said",
			Options:     []*discordgo.ApplicationCommandOption{nameOption("Name or mention of the user")},
		},
		{
			Name:        cmdSaid,
			Description: "Credit someone with saying this quote",
			Options:     []*discordgo.ApplicationCommandOption{nameOption("Who said the quote")},
		},
		{
			Name:        cmdAssisted,
			Description: "Credit someone with an assist on this quote",
			Options:     []*discordgo.ApplicationCommandOption{nameOption("Who assisted")},
		},
		{
			Name:        cmdDone,
			Description: "Everyone is credited; closes this thread",
		},
	}
}
