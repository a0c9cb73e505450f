package ownerlock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

const defaultPrefix = "discipline:ownerlock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every instance talking to the same redis.
// A holder that dies leaves the key to expire after TTL.
type Redis struct {
	rdb     goredis.UniversalClient
	log     *logger.Logger
	prefix  string
	ttl     time.Duration
	retry   time.Duration
	maxWait time.Duration
}

type RedisOptions struct {
	Prefix  string
	TTL     time.Duration
	Retry   time.Duration
	MaxWait time.Duration
}

func NewRedis(rdb goredis.UniversalClient, log *logger.Logger, opts RedisOptions) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.Retry <= 0 {
		opts.Retry = 25 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = opts.TTL
	}
	return &Redis{
		rdb:     rdb,
		log:     log.With("component", "RedisOwnerLock"),
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		retry:   opts.Retry,
		maxWait: opts.MaxWait,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	if r == nil || r.rdb == nil {
		return nil, errors.New("owner lock: redis client is nil")
	}
	redisKey := r.prefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, r.maxWait)
	defer cancel()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.rdb.SetNX(waitCtx, redisKey, token, r.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}

	var released bool
	return func() {
		if released {
			return
		}
		released = true
		relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer relCancel()
		if err := releaseScript.Run(relCtx, r.rdb, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			r.log.Warn("owner lock release failed", "key", key, "error", err)
		}
	}, nil
}
