package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCaptchaStore implements base64Captcha.Store backed by Redis.
type redisCaptchaStore struct {
	rc  *redis.Client
	ttl time.Duration
}

func newRedisCaptchaStore(rc *redis.Client, ttl time.Duration) *redisCaptchaStore {
	return &redisCaptchaStore{rc: rc, ttl: ttl}
}

func (s *redisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

func (s *redisCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.rc.Set(ctx, s.key(id), value, s.ttl).Err()
}

func (s *redisCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if clear {
		v, _, err := getDel(ctx, s.rc, s.key(id))
		if err != nil {
			return ""
		}
		return v
	}
	v, err := s.rc.Get(ctx, s.key(id)).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *redisCaptchaStore) Verify(id, answer string, clear bool) bool {
	v := s.Get(id, clear)
	return v != "" && v == answer
}
