package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"devsync/models"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var AppConfig Config

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

type AIConfig struct {
	Endpoint    string `json:"endpoint"`
	APIKey      string `json:"-"`
	Concurrency int    `json:"concurrency"`
}

type Config struct {
	Environment     string      `json:"environment"`
	ServerPort      string      `json:"server_port"`
	BaseURL         string      `json:"base_url"`
	LogLevel        string      `json:"log_level"`
	JWTSecret       string      `json:"-"`
	DBHost          string      `json:"db_host"`
	DBPort          string      `json:"db_port"`
	DBUser          string      `json:"db_user"`
	DBPassword      string      `json:"-"`
	DBName          string      `json:"db_name"`
	DBSSLMode       string      `json:"db_ssl_mode"`
	DBMaxIdleConns  int         `json:"db_max_idle_conns"`
	DBMaxOpenConns  int         `json:"db_max_open_conns"`
	Redis           RedisConfig `json:"redis"`
	SMTP            SMTPConfig  `json:"smtp"`
	AI              AIConfig    `json:"ai"`
	InviteRateLimit int         `json:"invite_rate_limit"`
	InviteSweepSpec string      `json:"invite_sweep_spec"`
	SentryDSN       string      `json:"-"`
	CORSOrigins     []string    `json:"cors_origins"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "8000"),
		BaseURL:        strings.TrimRight(getEnv("BASE_URL", "http://localhost:8000"), "/"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "devsync"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("FROM_EMAIL", "noreply@devsync.local"),
			FromName:  getEnv("FROM_NAME", "DevSync"),
		},
		AI: AIConfig{
			Endpoint:    getEnv("AI_ENDPOINT", ""),
			APIKey:      getEnv("AI_API_KEY", ""),
			Concurrency: getEnvAsInt("AI_WORKER_CONCURRENCY", 5),
		},
		InviteRateLimit: getEnvAsInt("INVITE_RATE_LIMIT", 10),
		InviteSweepSpec: getEnv("INVITE_SWEEP_SPEC", "@every 1h"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func ConnectDB(cfg Config, log *logrus.Entry) (*gorm.DB, error) {
	dsn := cfg.DSN()
	log.WithField("dsn", maskPassword(dsn)).Info("Connecting to database")

	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get DB instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("Successfully connected to the database")

	log.Info("Starting database migration")
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	log.Info("Database migration completed")
	return db, nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}
