package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server settings.
type Config struct {
	Env                 string
	Port                string
	AppTimezone         string
	LogLevel            string
	MysqlDSN            string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	LocalStorageRoot    string
	LocalStorageBaseURL string
	OssEndpoint         string
	OssAccessKey        string
	OssSecret           string
	OssBucket           string
	OssPublicBaseURL    string
	UploadMaxBytes      int64
	JwtSecret           string
	JwtIssuer           string
	JwtExpireHours      int
	GlobalCacheTTL      time.Duration
	MetricsAPIKey       string
}

// ClientConfig holds settings of the siteconfig CLI editor session.
type ClientConfig struct {
	ServerURL      string
	Token          string
	Subject        string
	LocalDriver    string
	LocalDir       string
	LocalKey       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Debounce       time.Duration
	RequestTimeout time.Duration
	LogLevel       string
}

// Load reads server settings from the environment and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load("../.env", ".env")

	redisDB, err := envStrictInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                 envOrDefault("APP_ENV", "dev"),
		Port:                envOrDefault("APP_PORT", "8080"),
		AppTimezone:         envOrDefault("APP_TIMEZONE", "Asia/Shanghai"),
		LogLevel:            envOrDefault("LOG_LEVEL", "info"),
		MysqlDSN:            normalizeMySQLDSN(os.Getenv("MYSQL_DSN")),
		RedisAddr:           envOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		LocalStorageRoot:    envOrDefault("LOCAL_STORAGE_ROOT", "/data/site-config/uploads"),
		LocalStorageBaseURL: envOrDefault("LOCAL_STORAGE_BASE_URL", "/api/local-files/"),
		OssEndpoint:         envOrDefault("ALI_URL", envOrDefault("ALI_ENDPOINT", "")),
		OssAccessKey:        os.Getenv("ALI_ACCESS_KEY_ID"),
		OssSecret:           os.Getenv("ALI_SECRET_ACCESS_KEY"),
		OssBucket:           os.Getenv("ALI_BUCKET"),
		OssPublicBaseURL:    strings.TrimSpace(os.Getenv("ALI_PUBLIC_BASE_URL")),
		UploadMaxBytes:      envInt64("UPLOAD_MAX_BYTES", 10<<20),
		JwtSecret:           envOrDefault("JWT_SECRET", "dev-secret"),
		JwtIssuer:           envOrDefault("JWT_ISSUER", "site-config-dashboard"),
		JwtExpireHours:      envInt("JWT_EXPIRE_HOURS", 24),
		GlobalCacheTTL:      time.Duration(envInt("GLOBAL_CONFIG_CACHE_SECONDS", 60)) * time.Second,
		MetricsAPIKey:       strings.TrimSpace(os.Getenv("METRICS_API_KEY")),
	}

	return cfg, nil
}

// LoadClient reads CLI settings from the environment and optional .env files.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load(".env")

	redisDB, err := envStrictInt("SITECONFIG_REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	defaultDir := ".siteconfig"
	if home != "" {
		defaultDir = home + string(os.PathSeparator) + ".siteconfig"
	}

	return &ClientConfig{
		ServerURL:      envOrDefault("SITECONFIG_SERVER_URL", "http://127.0.0.1:8080"),
		Token:          strings.TrimSpace(os.Getenv("SITECONFIG_TOKEN")),
		Subject:        strings.TrimSpace(os.Getenv("SITECONFIG_SUBJECT")),
		LocalDriver:    strings.ToLower(envOrDefault("SITECONFIG_LOCAL_DRIVER", "file")),
		LocalDir:       envOrDefault("SITECONFIG_LOCAL_DIR", defaultDir),
		LocalKey:       envOrDefault("SITECONFIG_LOCAL_KEY", "appearanceConfig"),
		RedisAddr:      envOrDefault("SITECONFIG_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  os.Getenv("SITECONFIG_REDIS_PASSWORD"),
		RedisDB:        redisDB,
		Debounce:       time.Duration(envInt("SITECONFIG_DEBOUNCE_MS", 300)) * time.Millisecond,
		RequestTimeout: time.Duration(envInt("SITECONFIG_TIMEOUT_SECONDS", 20)) * time.Second,
		LogLevel:       envOrDefault("LOG_LEVEL", "warn"),
	}, nil
}

// OSSEnabled reports whether all OSS credentials are present.
func (c *Config) OSSEnabled() bool {
	return c.OssEndpoint != "" && c.OssAccessKey != "" && c.OssSecret != "" && c.OssBucket != ""
}

func envOrDefault(key, value string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return value
}

func envInt64(key string, value int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return value
}

func envInt(key string, value int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return value
}

func envStrictInt(key string, value int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return value, nil
	}
	return strconv.Atoi(raw)
}

func normalizeMySQLDSN(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return ""
	}
	dsn = ensureDSNParam(dsn, "parseTime", "true")
	dsn = ensureDSNParam(dsn, "loc", "Asia%2FShanghai")
	dsn = ensureDSNParam(dsn, "time_zone", "%27%2B08:00%27")
	return dsn
}

func ensureDSNParam(dsn, key, value string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + value
}
