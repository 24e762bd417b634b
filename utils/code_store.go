package utils

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// in-memory fallback entry
type codeEntry struct {
	code      string
	expiresAt time.Time
}

// CodeStore keeps one-time verification codes and send cooldowns.
// Redis is preferred; a process-local map is used when Redis is absent or failing.
type CodeStore struct {
	rc *redis.Client

	mu    sync.Mutex
	codes map[string]codeEntry
}

// NewCodeStore returns a store backed by rc. rc may be nil for memory-only operation.
func NewCodeStore(rc *redis.Client) *CodeStore {
	return &CodeStore{rc: rc, codes: map[string]codeEntry{}}
}

// GenerateVerificationCode creates a numeric code with given length.
func GenerateVerificationCode(n int) string {
	if n <= 0 {
		n = 6
	}
	digits := make([]byte, n)
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			v = big.NewInt(time.Now().UnixNano() % 10)
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}

func codeKey(email string) string {
	return "verify:email:" + email
}

func cooldownKey(email string) string {
	return "cooldown:email:" + email
}

// Save stores a code for an email with TTL.
func (s *CodeStore) Save(ctx context.Context, email, code string, ttl time.Duration) {
	if s.rc != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rc.Set(cctx, codeKey(email), code, ttl).Err(); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.codes[codeKey(email)] = codeEntry{code: code, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// VerifyAndConsume checks a code and consumes it. A stored code is consumed even
// when the submitted one does not match, so every code gets a single attempt.
func (s *CodeStore) VerifyAndConsume(ctx context.Context, email, code string) bool {
	if s.rc != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		val, found, err := getDel(cctx, s.rc, codeKey(email))
		if err == nil {
			if found {
				return val == code
			}
			// not in Redis; it may have been saved to memory while Redis was down
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[codeKey(email)]
	if !ok {
		return false
	}
	delete(s.codes, codeKey(email))
	if time.Now().After(entry.expiresAt) {
		return false
	}
	return entry.code == code
}

// CooldownTrySet sets a cooldown key for sending email codes. Returns true if set, false if cooling down.
func (s *CodeStore) CooldownTrySet(ctx context.Context, email string, cooldown time.Duration) bool {
	if s.rc != nil {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		ok, err := s.rc.SetNX(cctx, cooldownKey(email), "1", cooldown).Result()
		if err == nil {
			return ok
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.codes[cooldownKey(email)]; ok && time.Now().Before(entry.expiresAt) {
		return false
	}
	s.codes[cooldownKey(email)] = codeEntry{code: "1", expiresAt: time.Now().Add(cooldown)}
	return true
}
