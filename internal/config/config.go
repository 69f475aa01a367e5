package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Assistant AssistantConfig
	Lock      LockConfig
	Events    EventsConfig
	Sweeper   SweeperConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	GatewayLogFilePath string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	Connection string
}

// AuthConfig describes how callers are identified. Authentication itself
// happens elsewhere; this service only verifies the issued bearer tokens.
type AuthConfig struct {
	JWTSecret           string
	SessionCookieName   string
	SessionHeaderName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration
}

// AssistantConfig is handed to the gateway client at construction time.
type AssistantConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	RunTimeout      time.Duration
	PollInterval    time.Duration
	MaxPollInterval time.Duration
	RequestTimeout  time.Duration
}

type LockConfig struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	TTL      time.Duration
}

type EventsConfig struct {
	Topic   string
	NatsURL string
}

type SweeperConfig struct {
	Enabled   bool
	Schedule  string
	IdleAfter time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	runTimeout := getEnvAsDuration("ASSISTANT_RUN_TIMEOUT", 2*time.Minute)
	if runTimeout <= 0 {
		runTimeout = 2 * time.Minute
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			GatewayLogFilePath: getEnv("GATEWAY_LOG_FILE_PATH", "logs/assistant_gateway.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "chat_session"),
			SessionHeaderName:   getEnv("SESSION_HEADER_NAME", "X-Session-Key"),
			SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 14*24*time.Hour),
		},
		Assistant: AssistantConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:           getEnv("OPENAI_ASSISTANT_MODEL", "gpt-4o-mini"),
			RunTimeout:      runTimeout,
			PollInterval:    getEnvAsDuration("ASSISTANT_POLL_INTERVAL", 500*time.Millisecond),
			MaxPollInterval: getEnvAsDuration("ASSISTANT_MAX_POLL_INTERVAL", 5*time.Second),
			RequestTimeout:  getEnvAsDuration("ASSISTANT_REQUEST_TIMEOUT", 30*time.Second),
		},
		Lock: LockConfig{
			Backend:  getEnv("LOCK_BACKEND", "memory"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			// The turn lock is held for the whole run, so it must outlive it.
			TTL: getEnvAsDuration("LOCK_TTL", runTimeout+30*time.Second),
		},
		Events: EventsConfig{
			Topic:   getEnv("ACTIVITY_TOPIC", "chat.activity"),
			NatsURL: getEnv("NATS_URL", ""),
		},
		Sweeper: SweeperConfig{
			Enabled:   getEnvAsBool("SWEEPER_ENABLED", true),
			Schedule:  getEnv("SWEEPER_SCHEDULE", "@every 1h"),
			IdleAfter: getEnvAsDuration("SWEEPER_IDLE_AFTER", 30*24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds := getEnvAsInt(key, -1); seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
