// Package auth issues and validates dashboard session tokens.
//
// Credential verification is behind an interface so the bundled static
// credential pair can be swapped for a real identity provider without
// touching the handlers.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// CredentialVerifier checks a username/password pair and returns the role
// granted to the session.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (role string, err error)
}

// StaticVerifier grants a fixed role to a single configured credential
// pair. Comparison is constant-time.
type StaticVerifier struct {
	Username string
	Password string
	Role     string
}

func (v StaticVerifier) Verify(_ context.Context, username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.Password)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return v.Role, nil
}

// MultiVerifier tries each verifier in order and returns the first grant.
type MultiVerifier []CredentialVerifier

func (m MultiVerifier) Verify(ctx context.Context, username, password string) (string, error) {
	for _, v := range m {
		if role, err := v.Verify(ctx, username, password); err == nil {
			return role, nil
		}
	}
	return "", ErrInvalidCredentials
}

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenIssuer signs and parses HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

func (t *TokenIssuer) Issue(username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Username: username,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
