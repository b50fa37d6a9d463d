// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/aristath/newswatch/internal/domain"
)

// News backend selectors.
const (
	SourceYahooFinance = "yahoo_finance"
	SourceAlphaVantage = "alpha_vantage"
	SourceNewsAPI      = "newsapi"
)

// Config holds application configuration
type Config struct {
	// Watch-list source. TickersFile and (SheetID + CredentialsFile) are mutually exclusive.
	TickersFile     string `yaml:"tickers_file"`
	SheetID         string `yaml:"sheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	TickerColumn    string `yaml:"ticker_column"`

	// News retrieval
	NewsSource           string `yaml:"news_source"`
	ItemsLimit           int    `yaml:"items_limit"`
	AlphaVantageAPIKey   string `yaml:"alpha_vantage_api_key"`
	AlphaVantageDailyCap int    `yaml:"alpha_vantage_daily_limit"`
	NewsAPIKey           string `yaml:"newsapi_api_key"`

	// Impact analysis
	GroqAPIKey   string `yaml:"groq_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	UseGroq      bool   `yaml:"use_groq"`
	GroqModel    string `yaml:"groq_model"`
	OpenAIModel  string `yaml:"openai_model"`

	// Notification
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`

	// Scheduling
	CheckIntervalMinutes int    `yaml:"check_interval_minutes"`
	CheckSchedule        string `yaml:"check_schedule"` // Optional cron expression, replaces the interval
	FetchConcurrency     int    `yaml:"fetch_concurrency"`
	CallTimeoutSeconds   int    `yaml:"call_timeout_seconds"`
	StopTimeoutSeconds   int    `yaml:"stop_timeout_seconds"`

	// Storage
	DataDir  string `yaml:"data_dir"`
	CacheURL string `yaml:"cache_url"` // redis://... selects redis, empty selects the sqlite cache file

	// Object storage for s3:// tickers files (S3 or R2)
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3Region          string `yaml:"s3_region"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`

	// Runtime
	HTTPPort  int    `yaml:"http_port"`
	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		TickersFile:          getEnv("TICKERS_FILE", ""),
		SheetID:              getEnv("SHEET_ID", ""),
		CredentialsFile:      getEnv("CREDENTIALS_FILE", ""),
		TickerColumn:         getEnv("TICKER_COLUMN", "Ticker"),
		NewsSource:           getEnv("NEWS_SOURCE", SourceAlphaVantage),
		ItemsLimit:           getEnvAsInt("NEWS_ITEMS_LIMIT", 1),
		AlphaVantageAPIKey:   getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageDailyCap: getEnvAsInt("ALPHA_VANTAGE_DAILY_LIMIT", 25),
		NewsAPIKey:           getEnv("NEWSAPI_API_KEY", ""),
		GroqAPIKey:           getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		UseGroq:              getEnvAsBool("USE_GROQ", true),
		GroqModel:            getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		CheckIntervalMinutes: getEnvAsInt("CHECK_INTERVAL_MINUTES", 60),
		CheckSchedule:        getEnv("CHECK_SCHEDULE", ""),
		FetchConcurrency:     getEnvAsInt("FETCH_CONCURRENCY", 1),
		CallTimeoutSeconds:   getEnvAsInt("CALL_TIMEOUT_SECONDS", 30),
		StopTimeoutSeconds:   getEnvAsInt("STOP_TIMEOUT_SECONDS", 5),
		DataDir:              getEnv("DATA_DIR", "data"),
		CacheURL:             getEnv("CACHE_URL", ""),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3Region:             getEnv("S3_REGION", "auto"),
		S3AccessKeyID:        getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
		HTTPPort:             getEnvAsInt("HTTP_PORT", 0),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogPretty:            getEnvAsBool("LOG_PRETTY", true),
	}

	return cfg, nil
}

// LoadFile overlays values from a YAML file on top of the current configuration.
// Keys absent from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Overrides holds command-line overrides for the watch-list source.
type Overrides struct {
	SheetID         string
	CredentialsFile string
	TickersFile     string
}

// Apply replaces watch-list settings with any non-empty override.
// Selecting one mode on the command line clears the other mode's settings.
func (c *Config) Apply(o Overrides) {
	if o.TickersFile != "" {
		c.TickersFile = o.TickersFile
		if o.SheetID == "" {
			c.SheetID = ""
		}
	}
	if o.SheetID != "" {
		c.SheetID = o.SheetID
		if o.TickersFile == "" {
			c.TickersFile = ""
		}
	}
	if o.CredentialsFile != "" {
		c.CredentialsFile = o.CredentialsFile
	}
}

// Validate checks that the configuration is complete and consistent.
// Every failure is a *domain.ConfigurationError.
func (c *Config) Validate() error {
	fileMode := c.TickersFile != ""
	sheetMode := c.SheetID != "" || c.CredentialsFile != ""

	switch {
	case fileMode && c.SheetID != "":
		return &domain.ConfigurationError{Field: "tickers_file", Reason: "tickers file and sheet id are mutually exclusive"}
	case !fileMode && !sheetMode:
		return &domain.ConfigurationError{Field: "tickers_file", Reason: "either a tickers file or sheet id and credentials file must be provided"}
	case !fileMode && (c.SheetID == "" || c.CredentialsFile == ""):
		return &domain.ConfigurationError{Field: "sheet_id", Reason: "sheet mode requires both sheet id and credentials file"}
	}

	if c.ItemsLimit <= 0 {
		return &domain.ConfigurationError{Field: "items_limit", Reason: "must be a positive integer"}
	}
	if c.CheckIntervalMinutes <= 0 {
		return &domain.ConfigurationError{Field: "check_interval_minutes", Reason: "must be a positive integer"}
	}
	if c.CheckSchedule != "" {
		if _, err := cron.ParseStandard(c.CheckSchedule); err != nil {
			return &domain.ConfigurationError{Field: "check_schedule", Reason: err.Error()}
		}
	}
	if c.FetchConcurrency <= 0 {
		return &domain.ConfigurationError{Field: "fetch_concurrency", Reason: "must be a positive integer"}
	}
	if c.CallTimeoutSeconds <= 0 || c.StopTimeoutSeconds <= 0 {
		return &domain.ConfigurationError{Field: "timeouts", Reason: "call and stop timeouts must be positive"}
	}
	if c.CacheURL != "" && !strings.HasPrefix(c.CacheURL, "redis://") && !strings.HasPrefix(c.CacheURL, "rediss://") {
		return &domain.ConfigurationError{Field: "cache_url", Reason: "only redis:// URLs are supported"}
	}

	return nil
}

// EnsureDataDir resolves DataDir to an absolute path and creates it.
func (c *Config) EnsureDataDir() error {
	absDataDir, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	c.DataDir = absDataDir
	return nil
}

// CheckInterval returns the fixed cadence interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// CallTimeout bounds every external call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// StopTimeout bounds how long Stop waits for the cadence loop.
func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}

// WatchlistMode names the configured watch-list strategy.
func (c *Config) WatchlistMode() string {
	if c.TickersFile != "" {
		return "file"
	}
	return "sheet"
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
