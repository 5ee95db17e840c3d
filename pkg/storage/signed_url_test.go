package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("user-1/1700000000000_foto.jpg")
	require.NoError(t, err)
	require.False(t, expiresAt.IsZero())

	path, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1/1700000000000_foto.jpg", path)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	base := time.Now()
	signer.now = func() time.Time { return base }
	token, _, err := signer.Sign("user-1/a.png")
	require.NoError(t, err)

	signer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("user-1/a.png")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = signer.Verify("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, _, err = signer.Sign("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
