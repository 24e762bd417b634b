package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	tok, err := issuer.Generate(Claims{Kind: TokenKindApplicant, Email: "205124040@nitt.edu", UserType: "student"}, time.Hour)
	require.NoError(t, err)

	claims, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, TokenKindApplicant, claims.Kind)
	assert.Equal(t, "205124040@nitt.edu", claims.Email)
	assert.Equal(t, "student", claims.UserType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	other, err := NewTokenIssuer("other").Generate(Claims{Kind: TokenKindAdmin, AdminID: 1}, time.Hour)
	require.NoError(t, err)
	_, err = issuer.Parse(other)
	assert.Error(t, err)

	expired, err := issuer.Generate(Claims{Kind: TokenKindAdmin, AdminID: 1}, -time.Minute)
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = issuer.Parse("not-a-token")
	assert.Error(t, err)
}
