package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration. Credentials and identities are
// always supplied from the environment, never embedded in source.
type Config struct {
	DatabaseURL  string `validate:"required"`
	Port         string `validate:"required"`
	IsProduction bool

	// Requester auth
	JWTSecret         string `validate:"required,min=16"`
	JWTExpiryDuration time.Duration
	AllowedRequesters []string          `validate:"required,min=1"`
	RequesterKeys     map[string]string // requester id → access key

	// Claim protocol
	MinClaimAmount  int64 `validate:"gt=0"`
	MaxClaimAmount  int64 `validate:"gtfield=MinClaimAmount"`
	ClaimTimeout    time.Duration
	ClaimMaxRetries int

	// Background work
	ReaperInterval time.Duration
	PollInterval   time.Duration
	SessionTTL     time.Duration

	// Ingestion
	SubjectKeyword string
	BarcodesDir    string
	RedisURL       string // empty: process-local single-flight guard

	// Gmail feed (optional; the feed is disabled when unset)
	GmailCredentialsJSON string
	GmailTokenJSON       string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRY_DURATION", "12h")
	viper.SetDefault("ALLOWED_REQUESTERS", "")
	viper.SetDefault("REQUESTER_ACCESS_KEYS", "")
	viper.SetDefault("MIN_CLAIM_AMOUNT", 1)
	viper.SetDefault("MAX_CLAIM_AMOUNT", 10000)
	viper.SetDefault("CLAIM_TIMEOUT", "30m")
	viper.SetDefault("CLAIM_MAX_RETRIES", 3)
	viper.SetDefault("REAPER_INTERVAL", "1m")
	viper.SetDefault("POLL_INTERVAL", "5m")
	viper.SetDefault("SESSION_TTL", "10m")
	viper.SetDefault("SUBJECT_KEYWORD", "שובר")
	viper.SetDefault("BARCODES_DIR", "barcodes")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("GMAIL_CREDENTIALS_JSON", "")
	viper.SetDefault("GMAIL_TOKEN_JSON", "")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:          viper.GetString("PGSQL_URL"),
		Port:                 viper.GetString("PORT"),
		IsProduction:         viper.GetBool("IS_PRODUCTION"),
		JWTSecret:            viper.GetString("JWT_SECRET"),
		MinClaimAmount:       viper.GetInt64("MIN_CLAIM_AMOUNT"),
		MaxClaimAmount:       viper.GetInt64("MAX_CLAIM_AMOUNT"),
		ClaimMaxRetries:      viper.GetInt("CLAIM_MAX_RETRIES"),
		SubjectKeyword:       viper.GetString("SUBJECT_KEYWORD"),
		BarcodesDir:          viper.GetString("BARCODES_DIR"),
		RedisURL:             viper.GetString("REDIS_URL"),
		GmailCredentialsJSON: viper.GetString("GMAIL_CREDENTIALS_JSON"),
		GmailTokenJSON:       viper.GetString("GMAIL_TOKEN_JSON"),
	}

	var err error
	if cfg.JWTExpiryDuration, err = parseDuration("JWT_EXPIRY_DURATION"); err != nil {
		return nil, err
	}
	if cfg.ClaimTimeout, err = parseDuration("CLAIM_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ReaperInterval, err = parseDuration("REAPER_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = parseDuration("POLL_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL"); err != nil {
		return nil, err
	}

	cfg.AllowedRequesters = splitList(viper.GetString("ALLOWED_REQUESTERS"))
	cfg.RequesterKeys, err = parseKeyPairs(viper.GetString("REQUESTER_ACCESS_KEYS"))
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsAllowedRequester reports whether the identity is on the allowlist.
func (c *Config) IsAllowedRequester(requesterID string) bool {
	for _, id := range c.AllowedRequesters {
		if id == requesterID {
			return true
		}
	}
	return false
}

func parseDuration(key string) (time.Duration, error) {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	return d, nil
}

// splitList parses "a,b,c" into a trimmed slice, dropping empties.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseKeyPairs parses "requester:key,requester:key" into a map.
func parseKeyPairs(raw string) (map[string]string, error) {
	pairs := make(map[string]string)
	for _, part := range splitList(raw) {
		id, key, ok := strings.Cut(part, ":")
		if !ok || id == "" || key == "" {
			return nil, fmt.Errorf("invalid REQUESTER_ACCESS_KEYS entry %q, want requester:key", part)
		}
		pairs[id] = key
	}
	return pairs, nil
}
