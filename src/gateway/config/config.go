package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config is loaded once in main and passed by parameter; no component reads
// the environment after startup.
type Config struct {
	DiscordPublicKey    string
	BotToken            string
	AppID               string
	GuildID             string
	TrustedRoleID       string
	RequiredApprovals   int
	IngestSecret        string
	JWTSecret           string
	ContractsWebhookURL string
	ReviewChannelID     string
	MySQLDSN            string
	RedisURL            string
	Port                string
	AllowedOrigins      []string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	required, _ := strconv.Atoi(getenv("REQUIRED_APPROVALS", "1"))
	if required < 1 {
		required = 1
	}

	origins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		DiscordPublicKey:    getenv("DISCORD_PUBLIC_KEY", ""),
		BotToken:            getenv("DISCORD_BOT_TOKEN", ""),
		AppID:               getenv("DISCORD_APP_ID", ""),
		GuildID:             os.Getenv("GUILD_ID"),
		TrustedRoleID:       getenv("TRUSTED_ROLE_ID", ""),
		RequiredApprovals:   required,
		IngestSecret:        getenv("INGEST_SECRET", ""),
		JWTSecret:           getenv("JWT_SECRET", "dev-only-realmgov-secret"),
		ContractsWebhookURL: os.Getenv("CONTRACTS_WEBHOOK_URL"),
		ReviewChannelID:     os.Getenv("REVIEW_CHANNEL_ID"),
		MySQLDSN:            getenv("MYSQL_DSN", ""),
		RedisURL:            getenv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		Port:                getenv("PORT", "8080"),
		AllowedOrigins:      origins,
	}
}
