package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"

	"metahire/store"
	"metahire/store/gormstore"
)

var (
	AppConfig Config
	envLoaded bool
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// SuperadminConfig seeds the first superadmin at startup when Email is set.
type SuperadminConfig struct {
	Email    string `json:"email"`
	Password string `json:"-"`
	FullName string `json:"full_name"`
}

type Config struct {
	Environment        string           `json:"environment"`
	ServerPort         string           `json:"server_port"`
	StorageDriver      string           `json:"storage_driver"`
	SQLitePath         string           `json:"sqlite_path"`
	DBHost             string           `json:"db_host"`
	DBPort             string           `json:"db_port"`
	DBUser             string           `json:"db_user"`
	DBPassword         string           `json:"-"`
	DBName             string           `json:"db_name"`
	DBSSLMode          string           `json:"db_ssl_mode"`
	DBMaxIdleConns     int              `json:"db_max_idle_conns"`
	DBMaxOpenConns     int              `json:"db_max_open_conns"`
	DBLogLevel         string           `json:"db_log_level"`
	Redis              RedisConfig      `json:"redis"`
	SessionSecret      string           `json:"-"`
	SessionTTL         time.Duration    `json:"session_ttl"`
	CORSOrigins        []string         `json:"cors_origins"`
	SentryDSN          string           `json:"-"`
	LogLevel           string           `json:"log_level"`
	LogFormat          string           `json:"log_format"`
	ImportBatchSize    int              `json:"import_batch_size"`
	DefaultPhoneRegion string           `json:"default_phone_region"`
	RateLimitLogin     int              `json:"rate_limit_login"`
	RateLimitImport    int              `json:"rate_limit_import"`
	Superadmin         SuperadminConfig `json:"superadmin"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		StorageDriver:  strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		SQLitePath:     getEnv("SQLITE_PATH", "metahire.db"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "metahire"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		DBLogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		ImportBatchSize:    getEnvAsInt("IMPORT_BATCH_SIZE", 10),
		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "US")),
		RateLimitLogin:     getEnvAsInt("RATE_LIMIT_LOGIN", 10),
		RateLimitImport:    getEnvAsInt("RATE_LIMIT_IMPORT", 5),
		Superadmin: SuperadminConfig{
			Email:    getEnv("SUPERADMIN_EMAIL", ""),
			Password: getEnv("SUPERADMIN_PASSWORD", ""),
			FullName: getEnv("SUPERADMIN_NAME", "Administrator"),
		},
	}

	if err := AppConfig.Validate(); err != nil {
		return err
	}
	logConfig()
	return nil
}

// Validate checks the combinations LoadConfig cannot default.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Superadmin.Email != "" && c.Superadmin.Password == "" {
		return fmt.Errorf("SUPERADMIN_PASSWORD is required when SUPERADMIN_EMAIL is set")
	}
	if c.Environment == "production" && c.StorageDriver == DriverMemory {
		return fmt.Errorf("the memory storage driver cannot be used in production")
	}
	return nil
}

// PostgresDSN builds the connection string for the postgres driver.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
	)
}

// OpenStore connects the configured backend and migrates it.
func OpenStore(ctx context.Context, c Config) (store.Store, error) {
	switch c.StorageDriver {
	case DriverMemory:
		logrus.Warn("Using in-memory sqlite storage, data is lost on restart")
		st, err := gormstore.OpenMemory(ctx, gormLogLevel(c.DBLogLevel))
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverSQLite:
		logrus.WithField("path", c.SQLitePath).Info("Opening sqlite database")
		st, err := gormstore.OpenSQLite(c.SQLitePath, gormLogLevel(c.DBLogLevel))
		if err != nil {
			return nil, err
		}
		return migrated(ctx, st)
	case DriverPostgres:
		dsn := c.PostgresDSN()
		logrus.WithField("dsn", maskPassword(dsn)).Info("Attempting to connect to database")
		st, err := gormstore.OpenPostgres(dsn, gormstore.PoolConfig{
			MaxIdleConns: c.DBMaxIdleConns,
			MaxOpenConns: c.DBMaxOpenConns,
		}, gormLogLevel(c.DBLogLevel))
		if err != nil {
			return nil, err
		}
		return migrated(ctx, st)
	}
	return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
}

func migrated(ctx context.Context, st *gormstore.Store) (store.Store, error) {
	logrus.Info("Starting database migration")
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	logrus.Info("Database migration completed")
	return st, nil
}

// ConnectRedis returns a client for the configured server, or nil when Redis
// is disabled.
func ConnectRedis(ctx context.Context, c RedisConfig) (*redis.Client, error) {
	if !c.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.Address,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
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

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment":    AppConfig.Environment,
		"server_port":    AppConfig.ServerPort,
		"storage_driver": AppConfig.StorageDriver,
		"redis":          AppConfig.Redis.Enabled,
		"sentry":         AppConfig.SentryDSN != "",
	}).Info("Loaded configuration")
}
