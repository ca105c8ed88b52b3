// Package auth issues and validates device bearer tokens.
//
// DEVICE TOKEN FLOW:
// 1. First launch: the client generates its device id (a random UUID) and
//    POSTs it to /api/devices
// 2. The server records the device and returns a signed JWT whose "sub"
//    claim is the device id
// 3. Write operations carry the token in the Authorization header;
//    middleware validates it and puts the device id in the request context
//
// There are no accounts and no passwords — the token only proves that the
// caller is the same install that registered the id, so one device cannot
// write under another device's subtree.
//
// WHY JWT?
// The token is stateless: the device id and expiry live inside the signed
// token, so validating a write needs no database lookup. The signature
// ensures nobody can mint a token for someone else's id without the
// server secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// deviceTokenLifetime is deliberately long: the token stands in for "this
// install", and an install lives until the app is removed. The client
// re-registers (idempotently) whenever its token expires.
const deviceTokenLifetime = 90 * 24 * time.Hour

const issuer = "whenbabe"

// TokenService signs and verifies device tokens with an HMAC secret.
// The same secret is used for both operations; rotate it and every
// device simply re-registers.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: WHENBABE_JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The standard "sub" claim carries the
// device id.
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a new device token for the given device id.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, fine for a
// single-server deployment.
func (s *TokenService) Generate(deviceID string) (string, error) {
	return s.GenerateWithDuration(deviceID, deviceTokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used in
// tests to exercise the expiry path without waiting 90 days.
func (s *TokenService) GenerateWithDuration(deviceID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning the device id
// from the "sub" claim.
//
// jwt.WithValidMethods pins the algorithm to HS256 — without it an
// attacker could try an algorithm-confusion token. Issuer and expiry are
// checked by the library as well.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	deviceID := c.Subject
	if deviceID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return deviceID, nil
}
