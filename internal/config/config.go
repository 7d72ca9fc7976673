package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageBolt   = "bolt"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Database    DatabaseConfig
	Sync        SyncConfig
	Schedule    ScheduleConfig
	Draw        DrawConfig
	JWT         JWTConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	EnablePprof   bool
	EnableMetrics bool
}

// StorageConfig selects the local document store.
type StorageConfig struct {
	Driver string
	Path   string
	Bucket string
	Prefix string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// DatabaseConfig points at the optional Postgres mirror.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

// SyncConfig controls the best-effort remote mirror and its local outbox.
type SyncConfig struct {
	Enabled        bool
	Bucket         string
	Interval       time.Duration
	BatchSize      int
	MaxRetry       int
	RetentionHours int
}

// ScheduleConfig sets the recurring weekly slot.
type ScheduleConfig struct {
	Weekday  time.Weekday
	Hour     int
	Location *time.Location
}

type DrawConfig struct {
	SpinDuration    time.Duration
	RevealDelay     time.Duration
	DefaultPoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
	Output   string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the app can start with no configuration at all.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	loc, err := getLocation("SCHEDULE_TZ", time.Local)
	if err != nil {
		return nil, err
	}
	weekday, err := getWeekday("SCHEDULE_WEEKDAY", time.Friday)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppName:     getString("APP_NAME", "datewheel"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "127.0.0.1"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", false),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getString("STORAGE_DRIVER", StorageBolt)),
			Path:   getString("BOLTDB_PATH", "./data/datewheel.db"),
			Bucket: getString("BOLTDB_BUCKET", "documents"),
			Prefix: getString("REDIS_PREFIX", "datewheel"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "datewheel"),
			User:            getString("DB_USER", "datewheel"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 1),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Sync: SyncConfig{
			Enabled:        getBool("SYNC_ENABLED", false),
			Bucket:         getString("SYNC_BUCKET", "outbox"),
			Interval:       getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			BatchSize:      getInt("SYNC_BATCH_SIZE", 50),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
			RetentionHours: getInt("SYNC_RETENTION_HOURS", 24*7),
		},
		Schedule: ScheduleConfig{
			Weekday:  weekday,
			Hour:     getInt("SCHEDULE_HOUR", 19),
			Location: loc,
		},
		Draw: DrawConfig{
			SpinDuration:    getDuration("DRAW_SPIN_DURATION", 4*time.Second),
			RevealDelay:     getDuration("DRAW_REVEAL_DELAY", 300*time.Millisecond),
			DefaultPoolSize: getInt("POOL_DEFAULT_SIZE", 6),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "datewheel"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
			Output:   getString("LOG_OUTPUT", "stdout"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    os.Getenv("MIGRATIONS_PATH"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageBolt, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("config: SCHEDULE_HOUR must be within 0..23, got %d", c.Schedule.Hour)
	}
	if c.Draw.DefaultPoolSize < 2 || c.Draw.DefaultPoolSize > 8 {
		return fmt.Errorf("config: POOL_DEFAULT_SIZE must be within 2..8, got %d", c.Draw.DefaultPoolSize)
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getLocation(key string, fallback *time.Location) (*time.Location, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	loc, err := time.LoadLocation(val)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", key, err)
	}
	return loc, nil
}

func getWeekday(key string, fallback time.Weekday) (time.Weekday, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(val); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), val) {
			return d, nil
		}
	}
	return fallback, fmt.Errorf("config: %s: unknown weekday %q", key, val)
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
