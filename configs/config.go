package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrConfiguration marks deployment configuration problems that must stop startup.
var ErrConfiguration = errors.New("configuration error")

// DevelopmentSecret signs session tokens outside production when JWT_SECRET is unset.
const DevelopmentSecret = "dev-only-insecure-admin-secret"

const (
	LedgerBackendSheets = "sheets"
	LedgerBackendSQL    = "sql"
)

type Config struct {
	Environment string
	ServerPort  string

	RedisURL         string
	DatabaseURL      string
	DatabaseReadURLs []string
	LedgerBackend    string

	JWTSecret           string
	JWTTTL              time.Duration
	UsingFallbackSecret bool

	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	ServiceAccountKey   string
	TokenURL            string
	SheetsAPIBase       string
	CacheBearerToken    bool

	QuoteRateLimitPerHour int
	LoginMaxFailures      int
	LoginLockoutWindow    time.Duration
	LoginFailureDelay     time.Duration
	UpstreamTimeout       time.Duration

	EnableWebSocket    bool
	TrustedProxies     []string
	TrustedPlatform    string
	CORSAllowedOrigins []string

	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadConfig reads the environment (and an optional .env file) into a Config.
// A missing JWT_SECRET is fatal in production and replaced by DevelopmentSecret elsewhere.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:      getEnv("APP_ENV", "development"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		RedisURL:         getEnv("REDIS_URL", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseReadURLs: parseList(getEnv("DATABASE_READ_URLS", "")),
		LedgerBackend:    strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendSheets)),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),

		SpreadsheetID:       getEnv("GOOGLE_SHEET_ID", ""),
		SheetName:           getEnv("GOOGLE_SHEET_NAME", "Quotes"),
		ServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		ServiceAccountKey:   getEnv("GOOGLE_PRIVATE_KEY", ""),
		TokenURL:            getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		SheetsAPIBase:       getEnv("SHEETS_API_BASE", "https://sheets.googleapis.com/v4"),
		CacheBearerToken:    parseBool(getEnv("SHEETS_TOKEN_CACHE", "true"), true),

		QuoteRateLimitPerHour: parseInt(getEnv("RATE_LIMIT_PER_HOUR", "20"), 20),
		LoginMaxFailures:      parseInt(getEnv("LOGIN_MAX_FAILURES", "5"), 5),
		LoginLockoutWindow:    parseDuration(getEnv("LOGIN_LOCKOUT_WINDOW", "15m"), 15*time.Minute),
		LoginFailureDelay:     parseDuration(getEnv("LOGIN_FAILURE_DELAY", "1s"), time.Second),
		UpstreamTimeout:       parseDuration(getEnv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),

		EnableWebSocket:    parseBool(getEnv("ENABLE_WEBSOCKET", "true"), true),
		TrustedProxies:     parseList(getEnv("TRUSTED_PROXIES", "")),
		TrustedPlatform:    strings.ToLower(getEnv("TRUSTED_PLATFORM", "")),
		CORSAllowedOrigins: parseList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		BootstrapAdminUsername: getEnv("ADMIN_BOOTSTRAP_USERNAME", ""),
		BootstrapAdminPassword: getEnv("ADMIN_BOOTSTRAP_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("%w: JWT_SECRET is required in production", ErrConfiguration)
		}
		cfg.JWTSecret = DevelopmentSecret
		cfg.UsingFallbackSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the selected ledger backend has everything it needs.
func (c *Config) Validate() error {
	switch c.LedgerBackend {
	case LedgerBackendSheets:
		var missing []string
		if c.SpreadsheetID == "" {
			missing = append(missing, "GOOGLE_SHEET_ID")
		}
		if c.ServiceAccountEmail == "" {
			missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_EMAIL")
		}
		if c.ServiceAccountKey == "" {
			missing = append(missing, "GOOGLE_PRIVATE_KEY")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
		}
	case LedgerBackendSQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required when LEDGER_BACKEND=sql", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown LEDGER_BACKEND %q", ErrConfiguration, c.LedgerBackend)
	}

	if c.QuoteRateLimitPerHour <= 0 {
		return fmt.Errorf("%w: RATE_LIMIT_PER_HOUR must be positive", ErrConfiguration)
	}
	if c.LoginMaxFailures <= 0 {
		return fmt.Errorf("%w: LOGIN_MAX_FAILURES must be positive", ErrConfiguration)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
