package config

import (
	"os"
	"strconv"
	"time"
)

// Transient store backends.
const (
	BackendDisk  = "disk"
	BackendMinIO = "minio"
)

// Cleanup policies applied to a staged upload once Ingest finishes.
const (
	CleanupRetain = "retain"
	CleanupDelete = "delete"
)

// Ask calling conventions toward the remote service.
const (
	AskModeReference = "reference"
	AskModeText      = "text"
)

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// RemoteConfig points at the document-understanding service.
type RemoteConfig struct {
	BaseURL    string
	TimeoutSec int
}

// Timeout returns the per-call deadline for the remote service.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSec) * time.Second
}

// TransientConfig describes where uploads are staged and how they are admitted.
type TransientConfig struct {
	Backend            string
	Directory          string
	MaxUploadSizeBytes int64
	AllowSpreadsheets  bool
	CleanupPolicy      string
}

// RetentionConfig controls the background sweeper. It is read once at startup.
type RetentionConfig struct {
	MaxFileAgeMs    int64
	SweepIntervalMs int64
}

// MaxFileAge returns the retention threshold as a duration.
func (r RetentionConfig) MaxFileAge() time.Duration {
	return time.Duration(r.MaxFileAgeMs) * time.Millisecond
}

// SweepInterval returns the sweep cadence as a duration.
func (r RetentionConfig) SweepInterval() time.Duration {
	return time.Duration(r.SweepIntervalMs) * time.Millisecond
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level    string
	Timezone string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	FrontendOrigin string
	BodyLimitBytes int
	AskMode        string
	Remote         RemoteConfig
	Transient      TransientConfig
	Retention      RetentionConfig
	MinIO          MinIOConfig
	Log            LogConfig
}

// Location resolves the configured log timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Log.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		FrontendOrigin: getEnv("FRONTEND_URL", ""),
		BodyLimitBytes: getEnvInt("BODY_LIMIT_BYTES", 50*1024*1024),
		AskMode:        oneOf(getEnv("ASK_MODE", AskModeReference), AskModeReference, AskModeReference, AskModeText),
		Remote: RemoteConfig{
			BaseURL:    getEnv("REMOTE_SERVICE_URL", getEnv("PYTHON_SERVICE_URL", "http://localhost:8000")),
			TimeoutSec: getEnvInt("REMOTE_TIMEOUT_SEC", 120),
		},
		Transient: TransientConfig{
			Backend:            oneOf(getEnv("TRANSIENT_BACKEND", BackendDisk), BackendDisk, BackendDisk, BackendMinIO),
			Directory:          getEnv("TRANSIENT_DIR", "./public/temp"),
			MaxUploadSizeBytes: getEnvInt64("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),
			AllowSpreadsheets:  getEnvBool("ALLOW_SPREADSHEETS", true),
			CleanupPolicy:      oneOf(getEnv("CLEANUP_POLICY", CleanupRetain), CleanupRetain, CleanupRetain, CleanupDelete),
		},
		Retention: RetentionConfig{
			MaxFileAgeMs:    getEnvInt64("RETENTION_MAX_FILE_AGE_MS", int64(time.Hour/time.Millisecond)),
			SweepIntervalMs: getEnvInt64("RETENTION_SWEEP_INTERVAL_MS", int64(10*time.Minute/time.Millisecond)),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			Prefix:    getEnv("MINIO_PREFIX", "temp/"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Timezone: getEnv("TZ_NAME", "UTC"),
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}

// oneOf returns v when it is one of allowed, def otherwise.
func oneOf(v, def string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
