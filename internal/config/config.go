package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Logging   LoggingConfig
	Providers ProvidersConfig
	Rights    RightsConfig
	Fees      FeesConfig
	Scheduler SchedulerConfig
	Security  SecurityConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration // Preflight cache lifetime
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Console output instead of JSON
}

// ProvidersConfig holds market data provider configuration
type ProvidersConfig struct {
	Timeout          time.Duration // Per-call timeout for one holding
	YahooBaseURL     string
	YahooRateLimit   float64 // Requests per second
	FinMindBaseURL   string
	FinMindRateLimit float64
}

// RightsConfig holds batch processing configuration
type RightsConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// FeesConfig holds the default rates (percent) for new accounts
type FeesConfig struct {
	BrokerageFeeRate   float64
	TransactionTaxRate float64
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled         bool
	RefreshSchedule string // Cron expression for the stale-holding refresh
}

// SecurityConfig holds secret handling configuration
type SecurityConfig struct {
	EncryptionKey string // Base64 fernet key for stored provider tokens
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/stock_portfolio.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Providers: ProvidersConfig{
			YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			FinMindBaseURL: getEnv("FINMIND_BASE_URL", "https://api.finmindtrade.com/api/v4/data"),
		},
		Scheduler: SchedulerConfig{
			RefreshSchedule: getEnv("RIGHTS_REFRESH_SCHEDULE", "0 30 18 * * 1-5"),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
		},
	}

	var err error
	if config.Logging.Pretty, err = getBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}
	if config.CORS.MaxAge, err = getDuration("CORS_MAX_AGE", 5*time.Minute); err != nil {
		return nil, err
	}
	if config.Providers.Timeout, err = getDuration("PROVIDER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.Providers.YahooRateLimit, err = getFloat("YAHOO_RATE_LIMIT", 2); err != nil {
		return nil, err
	}
	if config.Providers.FinMindRateLimit, err = getFloat("FINMIND_RATE_LIMIT", 1); err != nil {
		return nil, err
	}
	if config.Rights.BatchSize, err = getInt("RIGHTS_BATCH_SIZE", 3); err != nil {
		return nil, err
	}
	if config.Rights.BatchDelay, err = getDuration("RIGHTS_BATCH_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if config.Fees.BrokerageFeeRate, err = getFloat("BROKERAGE_FEE_RATE", 0.1425); err != nil {
		return nil, err
	}
	if config.Fees.TransactionTaxRate, err = getFloat("TRANSACTION_TAX_RATE", 0.3); err != nil {
		return nil, err
	}
	if config.Scheduler.Enabled, err = getBool("SCHEDULER_ENABLED", true); err != nil {
		return nil, err
	}

	if config.Rights.BatchSize < 1 {
		return nil, fmt.Errorf("RIGHTS_BATCH_SIZE must be at least 1, got %d", config.Rights.BatchSize)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

// getDuration accepts Go durations ("1.5s") or plain milliseconds ("1500").
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
