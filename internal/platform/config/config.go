package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	platformstrings "isolationd/pkg/platform/strings"
)

// Config is the process configuration assembled by FromEnv.
type Config struct {
	Server  Server
	Storage StorageConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Policy  PolicyConfig
	Watch   WatchConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    slog.Level
	// Timezone is the location "today" is evaluated in.
	Timezone *time.Location
}

// IsDevelopment reports whether the process runs with developer defaults.
func (s Server) IsDevelopment() bool {
	return s.Environment == "" || s.Environment == "development"
}

// StorageConfig selects the isolation state backend.
type StorageConfig struct {
	Driver string // memory | sqlite | postgres | redis
	// DSN is the postgres connection string or the sqlite file path.
	DSN string
	// EncryptionKey is a 32-byte key, hex encoded. Empty disables encryption at rest.
	EncryptionKey string
}

// RedisConfig configures the shared redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// KafkaConfig configures the analytics signpost producer. No brokers disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PolicyConfig locates the isolation policy document and how often to refresh it.
type PolicyConfig struct {
	Country         string
	File            string
	S3Bucket        string
	S3Key           string
	S3Region        string
	S3Endpoint      string
	RefreshInterval time.Duration
}

// WatchConfig drives day-rollover detection.
type WatchConfig struct {
	PollInterval time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
// Invalid values fall back to defaults with a warning.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:        getEnv("ISOLATIOND_ADDR", ":8080"),
			Environment: getEnv("ISOLATIOND_ENV", "development"),
			LogLevel:    parseLevel(os.Getenv("ISOLATIOND_LOG_LEVEL")),
			Timezone:    parseLocation(getEnv("ISOLATIOND_TIMEZONE", "Europe/London")),
		},
		Storage: StorageConfig{
			Driver:        getEnv("ISOLATIOND_STORAGE_DRIVER", "memory"),
			DSN:           os.Getenv("ISOLATIOND_STORAGE_DSN"),
			EncryptionKey: os.Getenv("ISOLATIOND_STORAGE_ENCRYPTION_KEY"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "isolationd"),
		},
		Kafka: KafkaConfig{
			Brokers: platformstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getEnv("KAFKA_SIGNPOST_TOPIC", "isolation.signposts"),
		},
		Policy: PolicyConfig{
			Country:         getEnv("ISOLATIOND_COUNTRY", "england"),
			File:            os.Getenv("ISOLATIOND_POLICY_FILE"),
			S3Bucket:        os.Getenv("ISOLATIOND_POLICY_S3_BUCKET"),
			S3Key:           getEnv("ISOLATIOND_POLICY_S3_KEY", "isolation-policy.json"),
			S3Region:        os.Getenv("ISOLATIOND_POLICY_S3_REGION"),
			S3Endpoint:      os.Getenv("ISOLATIOND_POLICY_S3_ENDPOINT"),
			RefreshInterval: getDuration("ISOLATIOND_POLICY_REFRESH", 6*time.Hour),
		},
		Watch: WatchConfig{
			PollInterval: getDuration("ISOLATIOND_WATCH_INTERVAL", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if raw == "" {
		return slog.LevelInfo
	}
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("invalid log level in environment, using info", "value", raw)
		return slog.LevelInfo
	}
	return level
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "value", name, "error", err)
		return time.UTC
	}
	return loc
}

