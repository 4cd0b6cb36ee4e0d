package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	digest, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", digest)
	assert.True(t, h.Verify("s3cret!", digest))
	assert.False(t, h.Verify("wrong", digest))
	assert.False(t, h.Verify("s3cret!", "not-a-digest"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)
	raw, err := issuer.Sign(42, "a@example.com", "admin")
	require.NoError(t, err)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, &Claims{UserID: 42, Email: "a@example.com", Role: "admin"}, claims)
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Minute)
	raw, err := issuer.Sign(1, "a@example.com", "client")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other-secret", time.Minute).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Sign(1, "a@example.com", "client")
	require.NoError(t, err)
	_, err = issuer.Verify(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsFromMapRequiresNumericSubject(t *testing.T) {
	_, err := ClaimsFromMap(jwt.MapClaims{"sub": "abc"})
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ClaimsFromMap(jwt.MapClaims{})
	assert.ErrorIs(t, err, ErrInvalidToken)

	c, err := ClaimsFromMap(jwt.MapClaims{"sub": "7", "role": "expert"})
	require.NoError(t, err)
	assert.Equal(t, uint(7), c.UserID)
	assert.Equal(t, "expert", c.Role)
}

func TestRefreshTokenHash(t *testing.T) {
	raw, hash, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	assert.Equal(t, HashToken(raw), hash)

	raw2, _, err := NewRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}
