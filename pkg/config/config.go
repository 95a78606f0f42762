package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Platform   PlatformConfig   `envconfig:"PLATFORM"`
	LLM        LLMConfig        `envconfig:"LLM"`
	Archive    ArchiveConfig    `envconfig:"ARCHIVE"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Summarizer SummarizerConfig `envconfig:"SUMMARIZER"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Port            string   `envconfig:"PORT" default:"8080"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"30"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"meeting_scribe"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"MIN_CONNS" default:"5"`
	// AutoMigrate applies SQL migrations at startup, development only
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"6379"`
	Password string `envconfig:"PASSWORD" default:""`
	DB       int    `envconfig:"DB" default:"0"`
}

// PlatformConfig holds meeting/chat platform API configuration
type PlatformConfig struct {
	BaseURL       string `envconfig:"BASE_URL" required:"true"`
	TokenURL      string `envconfig:"TOKEN_URL" required:"true"`
	ClientID      string `envconfig:"CLIENT_ID" required:"true"`
	ClientSecret  string `envconfig:"CLIENT_SECRET" required:"true"`
	TenantID      string `envconfig:"TENANT_ID" default:""`
	CallbackURL   string `envconfig:"CALLBACK_URL" default:""`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET" default:""`
	TimeoutSecs   int    `envconfig:"TIMEOUT_SECS" default:"30"`
}

// LLMConfig holds summarization model configuration
type LLMConfig struct {
	APIKey      string  `envconfig:"API_KEY" default:""`
	BaseURL     string  `envconfig:"BASE_URL" default:"https://api.groq.com"`
	Model       string  `envconfig:"MODEL" default:"llama-3.1-70b-versatile"`
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.3"`
}

// ArchiveConfig holds transcript archive (object storage) configuration
type ArchiveConfig struct {
	Enabled         bool   `envconfig:"ENABLED" default:"false"`
	Endpoint        string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"BUCKET" default:"meeting-transcripts"`
	UseSSL          bool   `envconfig:"USE_SSL" default:"false"`
}

// JWTConfig holds bearer-token configuration for the summary query API
type JWTConfig struct {
	Secret string `envconfig:"SECRET" default:"change-me-in-production"`
}

// SummarizerConfig holds default per-meeting summarization settings.
// Individual meetings may override these through the config endpoint; the
// overrides are validated against the same ranges.
type SummarizerConfig struct {
	IntervalMinutes         int    `envconfig:"INTERVAL_MINUTES" default:"10"`
	RetentionDays           int    `envconfig:"RETENTION_DAYS" default:"90"`
	AutoPostToChat          bool   `envconfig:"AUTO_POST_TO_CHAT" default:"false"`
	LateJoinerNotifications bool   `envconfig:"LATE_JOINER_NOTIFICATIONS" default:"true"`
	TranscriptMethod        string `envconfig:"TRANSCRIPT_METHOD" default:"polling"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Summarizer.IntervalMinutes < 5 || c.Summarizer.IntervalMinutes > 30 {
		return fmt.Errorf("SUMMARIZER_INTERVAL_MINUTES must be within [5,30], got %d", c.Summarizer.IntervalMinutes)
	}
	if c.Summarizer.RetentionDays < 30 || c.Summarizer.RetentionDays > 365 {
		return fmt.Errorf("SUMMARIZER_RETENTION_DAYS must be within [30,365], got %d", c.Summarizer.RetentionDays)
	}
	if m := c.Summarizer.TranscriptMethod; m != "polling" && m != "webhook" {
		return fmt.Errorf("SUMMARIZER_TRANSCRIPT_METHOD must be polling or webhook, got %q", m)
	}
	if c.Summarizer.TranscriptMethod == "webhook" && c.Platform.CallbackURL == "" {
		return fmt.Errorf("PLATFORM_CALLBACK_URL is required when transcript method is webhook")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
