package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeTranscribe authorizes a client to open the transcription bridge.
const ScopeTranscribe = "transcribe"

// SessionClaims are the claims carried by client session tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// TokenManager issues and validates short-lived client session tokens. The
// browser never sees upstream account credentials; it authenticates to this
// service with one of these tokens, and this service holds the upstream keys.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a manager signing with the given HMAC secret.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token signing secret required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Generate creates a signed session token for the subject with the given
// scope, returning the token and its expiry.
func (tm *TokenManager) Generate(subject, scope string) (string, time.Time, error) {
	now := time.Now().UTC()
	expires := now.Add(tm.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Issuer:    "medidash",
		},
		Scope: scope,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expires, nil
}

// Validate parses a session token and checks its signature, expiry, and
// required scope.
func (tm *TokenManager) Validate(tokenString, scope string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{},
		func(t *jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("medidash"),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if scope != "" && claims.Scope != scope {
		return nil, fmt.Errorf("token scope %q does not grant %q", claims.Scope, scope)
	}
	return claims, nil
}
