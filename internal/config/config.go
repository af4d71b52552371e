package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session backends
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// Config holds all configuration for the client and the stub backend
type Config struct {
	// API Configuration
	API APIConfig

	// Session Configuration
	Session SessionConfig

	// Navigation Configuration
	Navigation NavigationConfig

	// Logging Configuration
	Logging LoggingConfig

	// Stub backend Configuration
	Stub StubConfig
}

// APIConfig holds gateway configuration
type APIConfig struct {
	URL     string
	Timeout time.Duration
}

// SessionConfig holds session storage configuration
type SessionConfig struct {
	Backend string // file, keyring, memory
	File    string // empty means the per-user default path
}

// NavigationConfig holds route table configuration
type NavigationConfig struct {
	AnonymousLanding string // empty keeps the table's policy
	RoutesFile       string // empty uses the built-in table
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// StubConfig holds the development backend configuration
type StubConfig struct {
	Addr      string
	JWTSecret string
	JWTTTL    time.Duration
}

// Load loads configuration from environment variables. defaultLevel is the
// log level used when LOG_LEVEL is unset.
func Load(defaultLevel string) (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	timeout := 30 * time.Second
	if v := os.Getenv("LEADCRM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid LEADCRM_TIMEOUT %q: must be a positive duration", v)
		}
		timeout = d
	}

	backend := getEnv("LEADCRM_SESSION_BACKEND", BackendFile)
	switch backend {
	case BackendFile, BackendKeyring, BackendMemory:
	default:
		return nil, fmt.Errorf("invalid LEADCRM_SESSION_BACKEND %q: must be file, keyring or memory", backend)
	}

	ttl := 60 * time.Minute
	if v := os.Getenv("LEADCRM_JWT_TTL_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return nil, fmt.Errorf("invalid LEADCRM_JWT_TTL_MINUTES %q: must be a positive integer", v)
		}
		ttl = time.Duration(minutes) * time.Minute
	}

	return &Config{
		API: APIConfig{
			URL:     getEnv("LEADCRM_API_URL", "http://127.0.0.1:8000/api/v1"),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Backend: backend,
			File:    os.Getenv("LEADCRM_SESSION_FILE"),
		},
		Navigation: NavigationConfig{
			AnonymousLanding: os.Getenv("LEADCRM_ANON_LANDING"),
			RoutesFile:       os.Getenv("LEADCRM_ROUTES_FILE"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", defaultLevel),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Stub: StubConfig{
			Addr:      getEnv("LEADCRM_STUB_ADDR", "127.0.0.1:8000"),
			JWTSecret: getEnv("LEADCRM_JWT_SECRET", "dev-secret-change-me"),
			JWTTTL:    ttl,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
