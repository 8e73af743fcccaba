package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string
	LogMode string
	// TrustedProxies lists the reverse proxies whose X-Forwarded-For header is
	// honored when resolving the voter address. Empty trusts no proxy.
	TrustedProxies []string

	// LedgerDriver selects the vote ledger backend: "postgres" or "memory".
	LedgerDriver  string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	DBLockTimeout time.Duration
	DBMaxOpen     int
	DBMaxIdle     int

	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ResultsCacheTTL time.Duration
	VoteRateLimit   int
	VoteRateWindow  time.Duration
	ViewerTTL       time.Duration

	JWTSecret         string
	JWTExpiryMin      int
	AdminEmail        string
	AdminPasswordHash string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3PublicURL string
	S3URLExpiry time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),
		LogMode: getEnv("LOG_MODE", "development"),

		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),

		LedgerDriver:  getEnv("LEDGER_DRIVER", "postgres"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "livepoll"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBLockTimeout: getEnvAsDuration("DB_LOCK_TIMEOUT", 3*time.Second),
		DBMaxOpen:     getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		DBMaxIdle:     getEnvAsInt("DB_MAX_IDLE_CONNS", 10),

		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		ResultsCacheTTL: getEnvAsDuration("RESULTS_CACHE_TTL", 30*time.Second),
		VoteRateLimit:   getEnvAsInt("VOTE_RATE_LIMIT", 20),
		VoteRateWindow:  getEnvAsDuration("VOTE_RATE_WINDOW", time.Minute),
		ViewerTTL:       getEnvAsDuration("VIEWER_TTL", 90*time.Second),

		JWTSecret:         getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin:      getEnvAsInt("JWT_EXPIRY_MIN", 60),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@poll.com"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		S3Region:    getEnv("S3_REGION", ""),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),
		S3URLExpiry: getEnvAsDuration("S3_URL_EXPIRY", 15*time.Minute),
	}
}

// RedisEnabled reports whether a Redis host is configured. An empty
// REDIS_HOST disables caching, rate limiting and live push.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func (c *Config) S3Enabled() bool {
	return c.S3Region != "" && c.S3Bucket != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
