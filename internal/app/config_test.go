package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/discipline-backend/internal/data/db"
	"github.com/yungbote/discipline-backend/internal/platform/envutil"
)

func TestConfigDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "HTTP_ADDR", "ACCESS_TOKEN_TTL", "OWNER_LOCK_BACKEND", "SEED_USER_COUNT"} {
		t.Setenv(k, "")
	}
	cfg := configFrom(envutil.Reader{})
	if cfg.DB.Driver != db.DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", db.DriverSQLite, cfg.DB.Driver)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("addr: want=:8080 got=%s", cfg.HTTPAddr)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("ttl: want=24h got=%s", cfg.AccessTokenTTL)
	}
	if cfg.SeedUserCount != 10 || cfg.OwnerLockBackend != OwnerLockLocal {
		t.Fatalf("defaults: got count=%d lock=%s", cfg.SeedUserCount, cfg.OwnerLockBackend)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"http_addr: \":9999\"",
		"seed_user_count: 3",
		"cors_allowed_origins:",
		"  - http://a.test",
		"  - http://b.test",
		"timer_tick_seconds: 5",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SEED_USER_COUNT", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("TIMER_TICK_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("file value: want=:9999 got=%s", cfg.HTTPAddr)
	}
	if cfg.SeedUserCount != 7 {
		t.Fatalf("env wins: want=7 got=%d", cfg.SeedUserCount)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("list value: got=%v", cfg.CORSAllowedOrigins)
	}
	if cfg.TimerTick != 5*time.Second {
		t.Fatalf("tick: want=5s got=%s", cfg.TimerTick)
	}
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("a: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("want parse error got=nil")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AppEnv:           "development",
			DB:               db.Config{Driver: db.DriverSQLite},
			Timezone:         "UTC",
			OwnerLockBackend: OwnerLockLocal,
			AccessTokenTTL:   time.Hour,
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	cases := map[string]func(c *Config){
		"driver":       func(c *Config) { c.DB.Driver = "mysql" },
		"prod secret":  func(c *Config) { c.AppEnv = "production" },
		"timezone":     func(c *Config) { c.Timezone = "Mars/Olympus" },
		"lock backend": func(c *Config) { c.OwnerLockBackend = "etcd" },
		"redis lock":   func(c *Config) { c.OwnerLockBackend = OwnerLockRedis },
		"ttl":          func(c *Config) { c.AccessTokenTTL = 0 },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: want error got=nil", name)
		}
	}
}
