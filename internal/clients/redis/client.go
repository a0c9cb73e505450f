// Package redis opens the shared go-redis client used by the realtime bus,
// the distributed owner lock and the metrics collector.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type Options struct {
	// Addr may list several comma separated addresses for a cluster.
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewClient connects and pings. The caller closes the client.
func NewClient(ctx context.Context, log *logger.Logger, opts Options) (goredis.UniversalClient, error) {
	addrs := splitAddrs(opts.Addr)
	if len(addrs) == 0 {
		return nil, fmt.Errorf("missing redis address")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:       addrs,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("Redis connected", "addrs", strings.Join(addrs, ","))
	}
	return rdb, nil
}

func splitAddrs(raw string) []string {
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
