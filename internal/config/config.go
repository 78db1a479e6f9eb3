package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_PATH is required, matching
// the external-collaborator boundary of spec §6 (config loading itself is out
// of scope — this is the minimal env surface the core depends on).
type Config struct {
	// Server
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	NodeEnv         string
	FrontendOrigins []string

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Shared cache (recency cache + rate-limit state)
	RedisURL       string
	RedisKeyPrefix string

	// Human-verification oracle
	RecaptchaSecretKey string

	// Crawl scheduler
	CrawlInterval     time.Duration
	CrawlUserAgent    string
	CrawlTimeout      time.Duration
	CrawlRetries      int
	CrawlBaseURL      string

	// Health monitor
	CronTimezone      string
	WeeklyOptHour     int

	// Batch executor defaults
	BatchConcurrency int
	BatchTimeout     time.Duration
	BatchRetryCount  int
	BatchRetryDelay  time.Duration

	// Rate limiter
	GlobalPerSecond      int
	PerWebhookPerMinute  int

	// Endpoint quota
	MaxActiveEndpoints int
}

func Load() (*Config, error) {
	// DATABASE_PATH carries a full PostgreSQL connection string, not a filesystem
	// path — the name matches the external interface this process was ported from.
	dbURL := getEnv("DATABASE_PATH", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_PATH is required")
	}

	var origins []string
	if raw := os.Getenv("FRONTEND_URL"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Port:            getEnv("PORT", "3001"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 25*time.Second),
		NodeEnv:         getEnv("NODE_ENV", "production"),
		FrontendOrigins: origins,

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "lawcast:"),

		RecaptchaSecretKey: os.Getenv("RECAPTCHA_SECRET_KEY"),

		CrawlInterval:  getDuration("CRAWL_INTERVAL", 10*time.Minute),
		CrawlUserAgent: getEnv("CRAWL_USER_AGENT", "lawcast-backend/1.0"),
		CrawlTimeout:   getDuration("CRAWL_TIMEOUT", 15*time.Second),
		CrawlRetries:   getInt("CRAWL_RETRIES", 3),
		CrawlBaseURL:   getEnv("CRAWL_BASE_URL", ""),

		CronTimezone:  getEnv("CRON_TIMEZONE", "Asia/Seoul"),
		WeeklyOptHour: getInt("WEEKLY_OPTIMIZATION_HOUR", 2),

		BatchConcurrency: getInt("BATCH_CONCURRENCY", 10),
		BatchTimeout:     getDuration("BATCH_TIMEOUT", 30*time.Second),
		BatchRetryCount:  getInt("BATCH_RETRY_COUNT", 3),
		BatchRetryDelay:  getDuration("BATCH_RETRY_DELAY", 1*time.Second),

		GlobalPerSecond:     getInt("GLOBAL_PER_SECOND", 30),
		PerWebhookPerMinute: getInt("PER_WEBHOOK_PER_MINUTE", 60),

		MaxActiveEndpoints: getInt("MAX_ACTIVE_ENDPOINTS", 100),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
