package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // env: LOG_LEVEL, overrides the environment default

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Redis backs sessions and open drafts when set; otherwise both are
	// kept in process memory.
	RedisURL string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// Uploads
	UploadDir string // env: UPLOAD_DIR, directory served under /media
	MediaURL  string // env: MEDIA_URL, public prefix of uploaded files

	// Drafts
	DraftTTL time.Duration

	// Orphan sweeper
	SweepInterval time.Duration
	SweepMaxAge   time.Duration

	// Site Branding
	SiteTitle   string // env: SITE_TITLE, default: "Linkpage"
	SiteTagline string // env: SITE_TAGLINE, default: "One link for everything you do"
	SiteFooter  string // env: SITE_FOOTER
	SiteLogoURL string // env: SITE_LOGO_URL, default: "" (no logo, text only)
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load() // optional

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/")

	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          baseURL,
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/linkpage?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		TLSEnabled:       getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", baseURL+"/auth/callback"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		MediaURL:  strings.TrimRight(getEnv("MEDIA_URL", baseURL+"/media"), "/"),

		DraftTTL:      getDuration("DRAFT_TTL", 24*time.Hour),
		SweepInterval: getDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepMaxAge:   getDuration("SWEEP_MAX_AGE", time.Hour),

		SiteTitle:   getEnv("SITE_TITLE", "Linkpage"),
		SiteTagline: getEnv("SITE_TAGLINE", "One link for everything you do"),
		SiteFooter:  getEnv("SITE_FOOTER", "Linkpage"),
		SiteLogoURL: getEnv("SITE_LOGO_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}
