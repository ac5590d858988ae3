package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"referral-bot.backend/internal/domain/entities"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Referral ReferralConfig
	Workers  WorkerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver      string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SQLitePath  string
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration. An empty URL disables redis-backed features.
type RedisConfig struct {
	URL      string
	Password string
}

// TelegramConfig holds bot transport settings
type TelegramConfig struct {
	BotToken          string
	ChannelID         int64
	Mode              string
	WebhookURL        string
	WebhookPath       string
	MembershipTimeout time.Duration
	JoinRequestTTL    time.Duration
	VerifyCooldown    time.Duration
}

// ReferralConfig holds ledger and reward rules
type ReferralConfig struct {
	Threshold                 int
	RewardCodePrefix          string
	RewardPolicy              entities.RewardPolicy
	AdminIDs                  map[int64]struct{}
	RequireReferrerExists     bool
	ClaimRequiresVerification bool
}

// IsAdmin reports whether id may run privileged commands
func (c ReferralConfig) IsAdmin(id int64) bool {
	_, ok := c.AdminIDs[id]
	return ok
}

// WorkerConfig sizes the notification queue and update fan-out
type WorkerConfig struct {
	NotifyQueueSize int
	NotifyWorkers   int
	NotifyTimeout   time.Duration
	UpdateWorkers   int
	EventTimeout    time.Duration
	// PendingSweepInterval re-checks pending users; 0 disables the sweep
	PendingSweepInterval time.Duration
	PendingSweepBatch    int
}

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:      getEnv("DB_DRIVER", DriverPostgres),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvAsInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "referral"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SQLitePath:  getEnv("DB_SQLITE_PATH", "referral.db"),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Telegram: TelegramConfig{
			BotToken:          getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChannelID:         getEnvAsInt64("TELEGRAM_CHANNEL_ID", 0),
			Mode:              getEnv("TELEGRAM_MODE", ModePolling),
			WebhookURL:        getEnv("TELEGRAM_WEBHOOK_URL", ""),
			WebhookPath:       getEnv("TELEGRAM_WEBHOOK_PATH", "/telegram/webhook"),
			MembershipTimeout: getEnvAsDuration("MEMBERSHIP_TIMEOUT", 5*time.Second),
			JoinRequestTTL:    getEnvAsDuration("JOIN_REQUEST_TTL", 48*time.Hour),
			VerifyCooldown:    getEnvAsDuration("VERIFY_COOLDOWN", 3*time.Second),
		},
		Referral: ReferralConfig{
			Threshold:                 getEnvAsInt("REFERRAL_THRESHOLD", getEnvAsInt("THRESHOLD", 5)),
			RewardCodePrefix:          getEnv("REWARD_CODE_PREFIX", "REWARD-"),
			RewardPolicy:              entities.RewardPolicy(getEnv("REWARD_POLICY", string(entities.RewardPolicyOnce))),
			AdminIDs:                  getEnvAsIDSet("ADMIN_IDS"),
			RequireReferrerExists:     getEnvAsBool("REQUIRE_REFERRER_EXISTS", false),
			ClaimRequiresVerification: getEnvAsBool("CLAIM_REQUIRES_VERIFICATION", true),
		},
		Workers: WorkerConfig{
			NotifyQueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			NotifyWorkers:   getEnvAsInt("NOTIFY_WORKERS", 4),
			NotifyTimeout:   getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
			UpdateWorkers:   getEnvAsInt("UPDATE_WORKERS", 16),
			EventTimeout:    getEnvAsDuration("EVENT_TIMEOUT", 30*time.Second),

			PendingSweepInterval: getEnvAsDuration("PENDING_SWEEP_INTERVAL", 5*time.Minute),
			PendingSweepBatch:    getEnvAsInt("PENDING_SWEEP_BATCH", 50),
		},
	}
}

// Validate reports configuration that must stop the process before serving
func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Telegram.ChannelID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHANNEL_ID is required"))
	}
	switch c.Telegram.Mode {
	case ModePolling:
	case ModeWebhook:
		if c.Telegram.WebhookURL == "" {
			errs = append(errs, errors.New("TELEGRAM_WEBHOOK_URL is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TELEGRAM_MODE %q", c.Telegram.Mode))
	}
	if c.Database.Driver != DriverPostgres && c.Database.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	if c.Referral.Threshold <= 0 {
		errs = append(errs, errors.New("REFERRAL_THRESHOLD must be positive"))
	}
	if c.Referral.RewardCodePrefix == "" {
		errs = append(errs, errors.New("REWARD_CODE_PREFIX must not be empty"))
	}
	if !c.Referral.RewardPolicy.Valid() {
		errs = append(errs, fmt.Errorf("unknown REWARD_POLICY %q", c.Referral.RewardPolicy))
	}
	if c.Workers.NotifyWorkers <= 0 || c.Workers.UpdateWorkers <= 0 {
		errs = append(errs, errors.New("worker counts must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsIDSet parses a comma separated list of user ids, skipping junk entries
func getEnvAsIDSet(key string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil && id > 0 {
			ids[id] = struct{}{}
		}
	}
	return ids
}
