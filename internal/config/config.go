package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	ApplicationName    string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	ConnMaxIdleTimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AWSConfig holds settings for the S3 and DynamoDB backends.
// Endpoint overrides the AWS endpoint (e.g. LocalStack) when set.
type AWSConfig struct {
	Region      string
	Endpoint    string
	S3Bucket    string
	DynamoTable string
}

// ImportConfig tunes the TT2 import processor and the customer matcher cache.
type ImportConfig struct {
	Concurrency         int
	JobTimeoutSec       int
	SkipDuplicates      bool
	CustomerCacheSize   int
	CustomerCacheTTLSec int
}

// JobTimeout returns the job deadline, or zero when jobs run without one.
func (c ImportConfig) JobTimeout() time.Duration {
	if c.JobTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.JobTimeoutSec) * time.Second
}

// Backend names accepted by STORE_BACKEND and BLOB_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendMinIO    = "minio"
	BackendS3       = "s3"
)

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost      string
	Port         string
	LogLevel     string
	StoreBackend string
	BlobBackend  string
	BodyLimitMB  int
	Database     DatabaseConfig
	MinIO        MinIOConfig
	AWS          AWSConfig
	Import       ImportConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:      getEnv("APP_HOST", "localhost:8080"),
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		StoreBackend: getEnv("STORE_BACKEND", BackendPostgres),
		BlobBackend:  getEnv("BLOB_BACKEND", BackendMinIO),
		// Multipart batches can hold several files close to the 100 MiB per-file cap.
		BodyLimitMB: getEnvInt("HTTP_BODY_LIMIT_MB", 512),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "tt2import"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			ConnMaxIdleTimeSec: getEnvInt("DB_CONN_MAX_IDLE_TIME_SEC", 60),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		AWS: AWSConfig{
			Region:      getEnv("AWS_REGION", "us-east-1"),
			Endpoint:    getEnv("AWS_ENDPOINT_URL", ""),
			S3Bucket:    getEnv("S3_BUCKET", ""),
			DynamoTable: getEnv("DDB_TABLE", ""),
		},
		Import: ImportConfig{
			Concurrency:         getEnvInt("IMPORT_CONCURRENCY", 4),
			JobTimeoutSec:       getEnvInt("IMPORT_JOB_TIMEOUT_SEC", 0),
			SkipDuplicates:      getEnvBool("IMPORT_SKIP_DUPLICATES", false),
			CustomerCacheSize:   getEnvInt("CUSTOMER_CACHE_SIZE", 1024),
			CustomerCacheTTLSec: getEnvInt("CUSTOMER_CACHE_TTL_SEC", 300),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
