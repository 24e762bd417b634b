package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist keeps revoked JWTs until their natural expiration to support logout.
type TokenBlacklist struct {
	rc *redis.Client

	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewTokenBlacklist returns a blacklist backed by rc. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, revoked: map[string]time.Time{}}
}

// Revoke stores token until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if b.rc != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := b.rc.Set(cctx, "jwt:blacklist:"+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	b.mu.Lock()
	b.revoked[token] = expiresAt
	b.mu.Unlock()
}

// IsRevoked checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.rc != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(cctx, "jwt:blacklist:"+token).Result()
		if err == nil && n > 0 {
			return true
		}
		// On Redis error fall through to memory; fail-open to avoid accidental lockout
	}
	b.mu.RLock()
	expiresAt, ok := b.revoked[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.revoked, token)
		b.mu.Unlock()
		return false
	}
	return true
}
