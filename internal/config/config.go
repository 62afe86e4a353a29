package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Verification store backends.
const (
	StoreDynamo = "dynamo"
	StoreMemory = "memory"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	VerificationStore           string
	VerificationCleanupInterval time.Duration
	VerificationLinkBaseURL     string

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiry              time.Duration
	RefreshTokenExpiryDays int

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	AllowedOrigins []string // CORS allowed origins

	// TrustProxyHeaders makes rate limiting key on X-Forwarded-For / X-Real-Ip.
	// Only enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Staff             string
	Sessions          string
	Organisations     string
	SubscriptionPlans string
	Roles             string
	Verifications     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	store := strings.ToLower(getEnv("VERIFICATION_STORE", StoreDynamo))
	if store != StoreMemory {
		store = StoreDynamo
	}
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Staff:             getEnv("DYNAMO_TABLE_STAFF", "staff"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Organisations:     getEnv("DYNAMO_TABLE_ORGANISATIONS", "organisations"),
			SubscriptionPlans: getEnv("DYNAMO_TABLE_SUBSCRIPTION_PLANS", "subscription_plans"),
			Roles:             getEnv("DYNAMO_TABLE_ROLES", "roles"),
			Verifications:     getEnv("DYNAMO_TABLE_VERIFICATIONS", "verifications"),
		},

		VerificationStore:           store,
		VerificationCleanupInterval: getEnvDuration("VERIFICATION_CLEANUP_INTERVAL", 5*time.Minute),
		VerificationLinkBaseURL:     getEnv("VERIFICATION_LINK_BASE_URL", "http://localhost:3000/verify"),

		JWTPrivateKeyPath:      getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:       getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:              time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 12)) * time.Hour,
		RefreshTokenExpiryDays: getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiryDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
