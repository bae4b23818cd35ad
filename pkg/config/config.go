package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"

	"github.com/korjavin/mealwatch/pkg/logger"
)

// Config holds all configuration for the application
type Config struct {
	// Source configuration
	PageURL      string
	BaseURL      string
	FetchTimeout time.Duration

	// Schedule configuration
	TriggerDay time.Weekday
	Location   *time.Location

	// Storage configuration
	DataDir string

	// OpenAI configuration, used for image documents
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Telegram notification configuration
	BotToken     string
	NotifyChatID int64

	LogLevel logger.Level
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Global.Warn("Error loading .env file: %v", err)
	}

	cfg := &Config{
		PageURL:       getEnvWithDefault("MENU_PAGE_URL", "https://uni.dongseo.ac.kr/dormitory/index.php?pCode=MN5000024"),
		BaseURL:       getEnvWithDefault("MENU_BASE_URL", "https://uni.dongseo.ac.kr"),
		DataDir:       getEnvWithDefault("DATA_DIR", "./data"),
		OpenAIAPIBase: getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		LogLevel:      logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	}

	timeout, err := time.ParseDuration(getEnvWithDefault("FETCH_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("FETCH_TIMEOUT must be a positive duration, got %q", os.Getenv("FETCH_TIMEOUT"))
	}
	cfg.FetchTimeout = timeout

	day, err := ParseWeekday(getEnvWithDefault("TRIGGER_WEEKDAY", "Monday"))
	if err != nil {
		return nil, err
	}
	cfg.TriggerDay = day

	loc, err := time.LoadLocation(getEnvWithDefault("TIMEZONE", "Asia/Seoul"))
	if err != nil {
		return nil, fmt.Errorf("failed to load TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if chatID := os.Getenv("NOTIFY_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("NOTIFY_CHAT_ID must be an integer: %w", err)
		}
		cfg.NotifyChatID = id
	}

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	logCfg.BotToken = redact(logCfg.BotToken)
	logCfg.OpenAIAPIKey = redact(logCfg.OpenAIAPIKey)
	logger.Global.Debug("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

// NotificationsEnabled reports whether updates are posted to Telegram
func (c *Config) NotificationsEnabled() bool {
	return c.BotToken != "" && c.NotifyChatID != 0
}

// ParseWeekday accepts an English weekday name or its three-letter form
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func redact(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "REDACTED"
	}
	return secret[:8] + "...REDACTED..."
}
