package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/idportal/config"
)

// NewRedisClient builds a Redis client from config. A failed ping is logged and the
// client returned anyway; callers fall back to in-memory state on Redis errors.
func NewRedisClient(cfg config.AppConfig) *redis.Client {
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed, using in-memory fallbacks until it recovers: %v", err)
	}
	return rc
}

// getDel atomically reads and deletes key. It prefers GETDEL (Redis >= 6.2) and
// falls back to a Lua GET+DEL. found is false when the key does not exist.
func getDel(ctx context.Context, rc *redis.Client, key string) (val string, found bool, err error) {
	v, err := rc.GetDel(ctx, key).Result()
	if err == nil {
		return v, true, nil
	}
	if err == redis.Nil {
		return "", false, nil
	}
	script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
	res, err := rc.Eval(ctx, script, []string{key}).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s, ok := res.(string)
	return s, ok, nil
}
