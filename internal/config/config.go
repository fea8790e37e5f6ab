package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	JWT              JWTConfig
	Security         SecurityConfig
	Provider         ProviderConfig
	BankLookup       BankLookupConfig
	BusinessRegistry BusinessRegistryConfig
	Webhook          WebhookConfig
	Reconcile        ReconcileConfig
	Onboarding       OnboardingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// IsProduction reports whether SERVER_ENV is production
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment reports whether SERVER_ENV is development
func (c ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds partner token configuration
type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// SecurityConfig holds local encryption keys
type SecurityConfig struct {
	DraftEncryptionKey string
}

// ProviderConfig holds the payout provider's seller API settings
type ProviderConfig struct {
	BaseURL     string
	SecretKey   string
	SecurityKey string
	KeyEncoding string
	Timeout     time.Duration
}

// Configured reports whether the provider credentials are present
func (c ProviderConfig) Configured() bool {
	return c.BaseURL != "" && c.SecretKey != "" && c.SecurityKey != ""
}

// BankLookupConfig holds the account holder lookup service settings
type BankLookupConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// BusinessRegistryConfig holds the business registry API settings
type BusinessRegistryConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// WebhookConfig holds webhook receiver settings
type WebhookConfig struct {
	Secret        string
	RequireSecret bool
}

// ReconcileConfig holds status reconciliation settings
type ReconcileConfig struct {
	StrictOrdering  bool
	RefreshInterval time.Duration
	StaleAfter      time.Duration
	BatchSize       int
}

// OnboardingConfig holds wizard settings
type OnboardingConfig struct {
	DraftTTL time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	env := getEnv("SERVER_ENV", "development")

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            env,
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "partner_portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-this-in-production"),
			Issuer: getEnv("JWT_ISSUER", ""),
			Expiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Security: SecurityConfig{
			DraftEncryptionKey: getEnv("DRAFT_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("PROVIDER_BASE_URL", ""),
			SecretKey:   getEnv("PROVIDER_SECRET_KEY", ""),
			SecurityKey: getEnv("PROVIDER_SECURITY_KEY", ""),
			KeyEncoding: getEnv("PROVIDER_SECURITY_KEY_ENCODING", "hex"),
			Timeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		BankLookup: BankLookupConfig{
			BaseURL: getEnv("BANK_LOOKUP_BASE_URL", ""),
			APIKey:  getEnv("BANK_LOOKUP_API_KEY", ""),
			Timeout: getEnvAsDuration("BANK_LOOKUP_TIMEOUT", 5*time.Second),
		},
		BusinessRegistry: BusinessRegistryConfig{
			BaseURL:    getEnv("BUSINESS_REGISTRY_BASE_URL", ""),
			ServiceKey: getEnv("BUSINESS_REGISTRY_SERVICE_KEY", ""),
			Timeout:    getEnvAsDuration("BUSINESS_REGISTRY_TIMEOUT", 5*time.Second),
		},
		Webhook: WebhookConfig{
			Secret:        getEnv("WEBHOOK_SECRET", ""),
			RequireSecret: getEnvAsBool("WEBHOOK_REQUIRE_SECRET", env == "production"),
		},
		Reconcile: ReconcileConfig{
			StrictOrdering:  getEnvAsBool("RECONCILE_STRICT_ORDERING", false),
			RefreshInterval: getEnvAsDuration("RECONCILE_REFRESH_INTERVAL", 0),
			StaleAfter:      getEnvAsDuration("RECONCILE_STALE_AFTER", 6*time.Hour),
			BatchSize:       getEnvAsInt("RECONCILE_BATCH_SIZE", 50),
		},
		Onboarding: OnboardingConfig{
			DraftTTL: getEnvAsDuration("ONBOARDING_DRAFT_TTL", 24*time.Hour),
		},
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
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

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
