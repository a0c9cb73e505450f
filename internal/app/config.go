package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/discipline-backend/internal/data/db"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/envutil"
)

const (
	OwnerLockLocal = "local"
	OwnerLockRedis = "redis"
)

type Config struct {
	AppEnv   string
	LogMode  string
	HTTPAddr string

	DB db.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration
	Timezone       string

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	OwnerLockBackend string
	OwnerLockTTL     time.Duration

	SeedUsersOnStart bool
	SeedUserCount    int
	SeedUserPassword string

	CORSAllowedOrigins []string

	MetricsEnabled bool
	MetricsAddr    string

	OtelEnabled      bool
	OtelSampleRatio  float64
	OtelEndpoint     string
	OtelHeaders      string
	OtelInsecure     bool
	OtelServiceName  string
	OtelVersion      string

	TimerTick time.Duration
}

// LoadConfig reads the environment, overlaid on the YAML file named by
// CONFIG_FILE when set. The file is a flat mapping of the same keys.
func LoadConfig() (Config, error) {
	fallback, err := readConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}
	return configFrom(envutil.Reader{Fallback: fallback}), nil
}

func readConfigFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func configFrom(r envutil.Reader) Config {
	return Config{
		AppEnv:   r.String("APP_ENV", "development"),
		LogMode:  r.String("LOG_MODE", "development"),
		HTTPAddr: r.String("HTTP_ADDR", ":8080"),

		DB: db.Config{
			Driver:           r.String("DB_DRIVER", db.DriverSQLite),
			SQLitePath:       r.String("SQLITE_PATH", "discipline.db"),
			PostgresHost:     r.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     r.String("POSTGRES_PORT", "5432"),
			PostgresUser:     r.String("POSTGRES_USER", "postgres"),
			PostgresPassword: r.String("POSTGRES_PASSWORD", ""),
			PostgresName:     r.String("POSTGRES_NAME", "discipline"),
			SlowThreshold:    time.Duration(r.Int("DB_SLOW_QUERY_MS", 200)) * time.Millisecond,
		},

		JWTSecretKey:   r.String("JWT_SECRET_KEY", ""),
		AccessTokenTTL: r.Seconds("ACCESS_TOKEN_TTL", 24*time.Hour),
		Timezone:       r.String("APP_TIMEZONE", "Local"),

		RedisAddr:     r.String("REDIS_ADDR", ""),
		RedisPassword: r.String("REDIS_PASSWORD", ""),
		RedisChannel:  r.String("REDIS_CHANNEL", "discipline-events"),

		OwnerLockBackend: strings.ToLower(r.String("OWNER_LOCK_BACKEND", OwnerLockLocal)),
		OwnerLockTTL:     r.Seconds("OWNER_LOCK_TTL_SECONDS", 10*time.Second),

		SeedUsersOnStart: r.Bool("SEED_USERS_ON_START", true),
		SeedUserCount:    r.Int("SEED_USER_COUNT", 10),
		SeedUserPassword: r.String("SEED_USER_PASSWORD", "123456"),

		CORSAllowedOrigins: r.List("CORS_ALLOWED_ORIGINS", nil),

		MetricsEnabled: r.Bool("METRICS_ENABLED", false),
		MetricsAddr:    r.String("METRICS_ADDR", ":9090"),

		OtelEnabled:     r.Bool("OTEL_ENABLED", false),
		OtelSampleRatio: r.Float("OTEL_SAMPLER_RATIO", 1),
		OtelEndpoint:    r.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelHeaders:     r.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OtelInsecure:    r.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelServiceName: r.String("OTEL_SERVICE_NAME", "discipline"),
		OtelVersion:     r.String("APP_VERSION", "dev"),

		TimerTick: r.Seconds("TIMER_TICK_SECONDS", time.Second),
	}
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Validate() error {
	switch strings.ToLower(c.DB.Driver) {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverSQLite, db.DriverPostgres, c.DB.Driver)
	}
	if c.JWTSecretKey == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET_KEY is required in production")
	}
	if _, err := clock.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	switch c.OwnerLockBackend {
	case OwnerLockLocal:
	case OwnerLockRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("OWNER_LOCK_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("OWNER_LOCK_BACKEND must be %q or %q, got %q", OwnerLockLocal, OwnerLockRedis, c.OwnerLockBackend)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}
