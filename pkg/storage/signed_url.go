package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("invalid signed token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("signed token expired")
)

// SignedURLSigner issues time-limited tokens that grant read access to one object path.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token of the form <path>.<expiry>.<mac> for objectPath.
func (s *SignedURLSigner) Sign(objectPath string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	cleaned, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(cleaned))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	return encoded + "." + exp + "." + s.mac(encoded, exp), expiresAt, nil
}

// Verify checks the token and returns the object path it grants.
func (s *SignedURLSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}
	encoded, exp, signature := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.mac(encoded, exp)), []byte(signature)) {
		return "", ErrTokenInvalid
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", ErrTokenExpired
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrTokenInvalid
	}
	return string(raw), nil
}

func (s *SignedURLSigner) mac(encodedPath, exp string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(encodedPath + "|" + exp))
	return hex.EncodeToString(h.Sum(nil))
}
