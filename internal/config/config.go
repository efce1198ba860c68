package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App     AppConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Storage StorageConfig
	MinIO   MinIOConfig
	S3      S3Config
	Queue   QueueConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	CORSOrigins []string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // hours
}

// AccessTTL trả về thời gian sống của access token
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Hour
}

// =====================================================
// ASSET STORAGE CONFIGURATION
// =====================================================

type StorageConfig struct {
	Backend           string // local, minio, s3
	UploadDir         string // local backend root
	MaxUploadMB       int
	MaxImageMB        int
	MaxImageDimension int   // pixels, longest side
	MaxImagePixels    int64 // width*height trước khi decode
	SweepCron         string
	SweepGrace        time.Duration
}

// MaxUploadBytes giới hạn kích thước file tải lên
func (c StorageConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// MaxImageBytes giới hạn kích thước ảnh
func (c StorageConfig) MaxImageBytes() int64 {
	return int64(c.MaxImageMB) << 20
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string // minioadmin
	SecretKey string // minioadmin
	Bucket    string // marketplace
	UseSSL    bool   // false for local
}

type S3Config struct {
	Region    string
	Endpoint  string // empty = AWS default
	AccessKey string
	SecretKey string
	Bucket    string
	PathStyle bool
}

type QueueConfig struct {
	Enabled        bool
	RemoveMaxRetry int
	Concurrency    int
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	sweepGrace, err := time.ParseDuration(getEnv("STORAGE_SWEEP_GRACE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORAGE_SWEEP_GRACE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Digital Marketplace API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY_HOURS", 30*24), // 30 days
		},
		Storage: StorageConfig{
			Backend:           strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			UploadDir:         getEnv("STORAGE_UPLOAD_DIR", "uploads"),
			MaxUploadMB:       getEnvInt("STORAGE_MAX_UPLOAD_MB", 100),
			MaxImageMB:        getEnvInt("STORAGE_MAX_IMAGE_MB", 5),
			MaxImageDimension: getEnvInt("STORAGE_MAX_IMAGE_DIMENSION", 1600),
			MaxImagePixels:    int64(getEnvInt("STORAGE_MAX_IMAGE_PIXELS", 40_000_000)),
			SweepCron:         getEnv("STORAGE_SWEEP_CRON", "0 * * * *"),
			SweepGrace:        sweepGrace,
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "marketplace"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		S3: S3Config{
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "marketplace"),
			PathStyle: getEnvBool("S3_PATH_STYLE", true),
		},
		Queue: QueueConfig{
			Enabled:        getEnvBool("QUEUE_ENABLED", true),
			RemoveMaxRetry: getEnvInt("QUEUE_REMOVE_MAX_RETRY", 5),
			Concurrency:    getEnvInt("QUEUE_CONCURRENCY", 10),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "minio", "s3":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected local, minio or s3)", c.Storage.Backend)
	}

	if c.Storage.MaxUploadMB <= 0 || c.Storage.MaxImageMB <= 0 {
		return fmt.Errorf("upload size limits must be positive")
	}

	if c.JWT.AccessTokenExpiry <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRY_HOURS must be positive")
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
