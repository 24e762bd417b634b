package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateVerificationCode(t *testing.T) {
	code := GenerateVerificationCode(6)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9', "non digit %q", r)
	}
	assert.Len(t, GenerateVerificationCode(0), 6)
}

func TestCodeStoreMemorySingleAttempt(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(nil)

	s.Save(ctx, "a@nitt.edu", "123456", time.Minute)
	assert.False(t, s.VerifyAndConsume(ctx, "a@nitt.edu", "000000"))
	// consumed by the failed attempt
	assert.False(t, s.VerifyAndConsume(ctx, "a@nitt.edu", "123456"))

	s.Save(ctx, "a@nitt.edu", "654321", time.Minute)
	assert.True(t, s.VerifyAndConsume(ctx, "a@nitt.edu", "654321"))
	assert.False(t, s.VerifyAndConsume(ctx, "a@nitt.edu", "654321"))
}

func TestCodeStoreMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(nil)
	s.Save(ctx, "b@nitt.edu", "111111", -time.Second)
	assert.False(t, s.VerifyAndConsume(ctx, "b@nitt.edu", "111111"))
}

func TestCodeStoreCooldown(t *testing.T) {
	ctx := context.Background()
	s := NewCodeStore(nil)
	assert.True(t, s.CooldownTrySet(ctx, "c@nitt.edu", time.Minute))
	assert.False(t, s.CooldownTrySet(ctx, "c@nitt.edu", time.Minute))
	assert.True(t, s.CooldownTrySet(ctx, "d@nitt.edu", time.Minute))
}

func TestTokenBlacklistMemory(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(nil)
	assert.False(t, b.IsRevoked(ctx, "tok"))

	b.Revoke(ctx, "tok", time.Now().Add(time.Hour))
	assert.True(t, b.IsRevoked(ctx, "tok"))

	b.Revoke(ctx, "old", time.Now().Add(-time.Minute))
	assert.False(t, b.IsRevoked(ctx, "old"))
}
