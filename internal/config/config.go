package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Groups    GroupConfig
	Media     MediaConfig
	Storage   StorageConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port            string
	Env             string
	LogLevel        string
	AllowedOrigins  []string
	TrustedProxies  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BcryptCost         int
	MaxFailedAttempts  int
	LockoutDuration    time.Duration
}

// GroupConfig holds defaults applied when a group is created without them
type GroupConfig struct {
	DefaultMaxMembers int
	InviteExpiry      time.Duration
	InviteCodeRetries int
}

type MediaConfig struct {
	MaxImageSize  int64
	MaxVideoSize  int64
	DefaultLimit  int
	MaxLimit      int
	UploadTimeout time.Duration
}

type StorageConfig struct {
	Provider      string // "memory", "s3" or "minio"
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseTLS        bool
	PublicBaseURL string
	PresignExpiry time.Duration
}

type EmailConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
	AppBaseURL  string
}

type RateLimitConfig struct {
	AuthRequestsPerMinute int
}

type CleanupConfig struct {
	Interval              time.Duration
	RefreshTokenRetention time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "tripshare"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			Env:             env,
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			AllowedOrigins:  parseAllowedOrigins(env),
			TrustedProxies:  getEnvAsSlice("TRUSTED_PROXIES", nil),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 2*time.Minute),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			AccessTokenSecret:  getEnv("JWT_ACCESS_SECRET", ""),
			RefreshTokenSecret: getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			MaxFailedAttempts:  getEnvAsInt("AUTH_MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:    getEnvAsDuration("AUTH_LOCKOUT_DURATION", 15*time.Minute),
		},
		Groups: GroupConfig{
			DefaultMaxMembers: getEnvAsInt("GROUP_DEFAULT_MAX_MEMBERS", 50),
			InviteExpiry:      getEnvAsDuration("GROUP_INVITE_EXPIRY", 7*24*time.Hour),
			InviteCodeRetries: getEnvAsInt("GROUP_INVITE_CODE_RETRIES", 10),
		},
		Media: MediaConfig{
			MaxImageSize:  getEnvAsInt64("MEDIA_MAX_IMAGE_SIZE", 10*1024*1024),
			MaxVideoSize:  getEnvAsInt64("MEDIA_MAX_VIDEO_SIZE", 100*1024*1024),
			DefaultLimit:  getEnvAsInt("MEDIA_DEFAULT_PAGE_LIMIT", 20),
			MaxLimit:      getEnvAsInt("MEDIA_MAX_PAGE_LIMIT", 100),
			UploadTimeout: getEnvAsDuration("MEDIA_UPLOAD_TIMEOUT", 15*time.Minute),
		},
		Storage: StorageConfig{
			Provider:      strings.ToLower(getEnv("STORAGE_PROVIDER", "memory")),
			Bucket:        getEnv("STORAGE_BUCKET", "tripshare-media"),
			Region:        getEnv("STORAGE_REGION", "us-east-1"),
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			UseTLS:        getEnvAsBool("STORAGE_USE_TLS", true),
			PublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),
			PresignExpiry: getEnvAsDuration("STORAGE_PRESIGN_EXPIRY", 15*time.Minute),
		},
		Email: EmailConfig{
			Enabled:     getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@tripshare.app"),
			AppBaseURL:  getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			AuthRequestsPerMinute: getEnvAsInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
		},
		Cleanup: CleanupConfig{
			Interval:              getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			RefreshTokenRetention: getEnvAsDuration("REFRESH_TOKEN_RETENTION", 30*24*time.Hour),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret("JWT_ACCESS_SECRET", cfg.Auth.AccessTokenSecret, env); err != nil {
		return nil, err
	}
	if err := validateJWTSecret("JWT_REFRESH_SECRET", cfg.Auth.RefreshTokenSecret, env); err != nil {
		return nil, err
	}
	if cfg.Auth.AccessTokenSecret == cfg.Auth.RefreshTokenSecret {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	switch cfg.Storage.Provider {
	case "memory":
	case "s3", "minio":
		if cfg.Storage.Bucket == "" {
			return nil, fmt.Errorf("STORAGE_BUCKET is required for %s storage", cfg.Storage.Provider)
		}
		if cfg.Storage.Provider == "minio" && cfg.Storage.Endpoint == "" {
			return nil, fmt.Errorf("STORAGE_ENDPOINT is required for minio storage")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_PROVIDER %q", cfg.Storage.Provider)
	}

	if cfg.Auth.MaxFailedAttempts < 1 {
		return nil, fmt.Errorf("AUTH_MAX_FAILED_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for a signing secret
func validateJWTSecret(name, secret, env string) error {
	if secret == "" {
		return fmt.Errorf("%s is required", name)
	}

	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("%s must be at least %d characters in %s environment (got %d)",
			name, minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("%s cannot be a common weak value", name)
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if origins := getEnvAsSlice("ALLOWED_ORIGINS", nil); origins != nil {
		return origins
	}

	if env == "production" {
		return []string{}
	}

	// Expo / Metro bundler and local web builds
	return []string{
		"http://localhost:3000",
		"http://localhost:8081",
		"http://localhost:19006",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8081",
		"http://127.0.0.1:19006",
	}
}
