package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr string

	// PostgresDSN empty means in-memory stores (dev mode, unit tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig

	Discord DiscordConfig

	JWTSigningKey string

	// OrphanSweepInterval drives the background member-orphan sweep.
	OrphanSweepInterval time.Duration
}

// RedisConfig configures the optional role-cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the guild event consumer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// DiscordConfig configures the guild authority client.
type DiscordConfig struct {
	APIBase  string
	BotToken string
	GuildID  string

	PlayerRoleID      string
	CaptainRoleID     string
	ViceCaptainRoleID string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("ROSTERBRIDGE_ADDR", ":3001"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("KAFKA_GUILD_EVENTS_TOPIC", "guild.events"),
			Group: envOr("KAFKA_CONSUMER_GROUP", "rosterbridge"),
		},
		Discord: DiscordConfig{
			APIBase:           envOr("DISCORD_API_BASE", "https://discord.com/api/v10"),
			BotToken:          os.Getenv("BOT_TOKEN"),
			GuildID:           os.Getenv("GUILD_ID"),
			PlayerRoleID:      os.Getenv("PLAYER_ROLE_ID"),
			CaptainRoleID:     os.Getenv("CAPTAIN_ROLE_ID"),
			ViceCaptainRoleID: os.Getenv("VICE_CAPTAIN_ROLE_ID"),
		},
		JWTSigningKey:       envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		OrphanSweepInterval: 15 * time.Minute,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("ORPHAN_SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.OrphanSweepInterval = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
