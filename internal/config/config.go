package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Ledger   LedgerConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	AdminAPIKey  string
	AllowOrigins string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type TelegramConfig struct {
	BotToken  string
	WebAppURL string
}

type LedgerConfig struct {
	// CompanyUserID receives nothing directly; it is seeded so that
	// company-owned referral trees have a root.
	CompanyUserID int64
	DepositTagTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// DSN prefers DATABASE_URL and falls back to the DB_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// IsProduction reports whether ENVIRONMENT names a production deployment.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	companyID, _ := strconv.ParseInt(getEnv("COMPANY_USER_ID", "1000000000001"), 10, 64)
	tagTTL, err := time.ParseDuration(getEnv("DEPOSIT_TAG_TTL", "24h"))
	if err != nil {
		tagTTL = DefaultDepositTagTTL
	}

	server := ServerConfig{
		Port:         getEnv("SERVER_PORT", "8001"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		AdminAPIKey:  getEnv("ADMIN_API_KEY", ""),
		AllowOrigins: getEnv("ALLOW_ORIGINS", "*"),
	}

	// Production defaults to JSON logs
	logFormat := "text"
	if server.IsProduction() {
		logFormat = "json"
	}

	cfg := &Config{
		Server:   server,
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "mstc"),
			Password: getEnv("DB_PASSWORD", "mstc"),
			Name:     getEnv("DB_NAME", "mstc"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Telegram: TelegramConfig{
			BotToken:  getEnv("BOT_TOKEN", ""),
			WebAppURL: getEnv("WEBAPP_URL", ""),
		},
		Ledger: LedgerConfig{
			CompanyUserID: companyID,
			DepositTagTTL: tagTTL,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", logFormat),
		},
	}

	return cfg, nil
}

// SetupLogging applies level and format to the package-level logrus logger.
func SetupLogging(cfg LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultDepositTagTTL = 24 * time.Hour
	ShutdownTimeout      = 10 * time.Second
)
