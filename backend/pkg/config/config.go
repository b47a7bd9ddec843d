package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// Store backends
const (
	StoreBackendNeo4j  = "neo4j"
	StoreBackendMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port    string
	Env     string
	LogFile string
	Quiet   bool

	// Storage
	StoreBackend  string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
	QueryTimeout  time.Duration

	// Discord
	DiscordBotToken string
	GuildID         string
	QuoteChannelID  string // Channel where quotes are posted
	BotChannelID    string // Channel holding attribution threads and bot commands
	OwnerID         string // Receives relayed DMs
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogFile:         getEnv("LOG_FILE", ""),
		Quiet:           getEnvBool("QUIET", false),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreBackendNeo4j)),
		Neo4jURI:        getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", ""),
		QueryTimeout:    time.Duration(getEnvInt("QUERY_TIMEOUT_MS", 5000)) * time.Millisecond,
		DiscordBotToken: getEnv("DISCORD_BOT_TOKEN", ""),
		GuildID:         getEnv("DISCORD_GUILD_ID", ""),
		QuoteChannelID:  getEnv("QUOTE_CHANNEL_ID", ""),
		BotChannelID:    getEnv("BOT_CHANNEL_ID", ""),
		OwnerID:         getEnv("OWNER_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT_MS must be positive")
	}
	// Discord settings are checked by the bot; the HTTP server runs without them
	return nil
}

// ValidateDiscord checks the settings only the bot process needs
func (c *Config) ValidateDiscord() error {
	required := map[string]string{
		"DISCORD_BOT_TOKEN": c.DiscordBotToken,
		"DISCORD_GUILD_ID":  c.GuildID,
		"QUOTE_CHANNEL_ID":  c.QuoteChannelID,
		"BOT_CHANNEL_ID":    c.BotChannelID,
	}
	for _, key := range []string{"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "QUOTE_CHANNEL_ID", "BOT_CHANNEL_ID"} {
		if required[key] == "" {
			return apperrors.NewConfigMissingRequired(key)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}
